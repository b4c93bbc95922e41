package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// LifecycleConfig tunes the submission and attempt services.
type LifecycleConfig struct {
	ConflictRetries        int
	AllowedAttachmentTypes []string
}

// SubmissionService drives the submission lifecycle for one assignment slot per student.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionSubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor ActivityActor) (dto.GradeResultResponse, error)
	Get(ctx context.Context, submissionID uint, actor ActivityActor) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint, query dto.SubmissionListQuery, actor ActivityActor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	publisher   events.Publisher
	clock       grading.Clock
	attachments AttachmentPolicy
	sanitizer   *bluemonday.Policy
	retries     int
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	publisher events.Publisher,
	clock grading.Clock,
	cfg LifecycleConfig,
	logger zerolog.Logger,
) SubmissionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clock == nil {
		clock = grading.SystemClock
	}

	return &submissionService{
		assignments: assignments,
		submissions: submissions,
		validator:   validate,
		activity:    activity,
		publisher:   publisher,
		clock:       clock,
		attachments: NewAttachmentPolicy(cfg.AllowedAttachmentTypes),
		sanitizer:   bluemonday.StrictPolicy(),
		retries:     cfg.ConflictRetries,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "submission"),
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionSubmitRequest, actor ActivityActor) (response dto.SubmissionResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.student_id", int64(actor.ID)),
	))
	defer span.End()
	defer func() {
		recordOutcome("submit", err)
		if err != nil {
			failSpan(span, err)
		}
	}()

	if !grading.CanSubmit(actor.Role) {
		return dto.SubmissionResponse{}, grading.NewError(grading.KindForbidden, "only students can submit work")
	}
	if err := validatePayload(s.validator, payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	attachments, err := s.attachments.Convert(payload.Attachments)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, translateStoreError(err, "assignment")
	}

	input := grading.SubmitInput{
		StudentID:   actor.ID,
		Content:     payload.Content,
		Attachments: attachments,
		Status:      payload.Status,
	}

	var (
		saved       models.Submission
		handedIn    bool
		firstCreate bool
	)
	err = retryOnConflict(ctx, s.retries, payload.Version, "submission", func() error {
		var current *models.Submission
		existing, lookupErr := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, actor.ID)
		switch {
		case lookupErr == nil:
			current = &existing
			if err := checkClientVersion(payload.Version, existing.Version, "submission"); err != nil {
				return err
			}
		case !errors.Is(lookupErr, gorm.ErrRecordNotFound):
			return lookupErr
		}

		next, err := grading.Submit(assignment, current, input, s.clock.Now())
		if err != nil {
			return err
		}

		if current == nil {
			err = s.submissions.Create(ctx, &next)
		} else {
			err = s.submissions.Update(ctx, &next)
		}
		if err != nil {
			return err
		}

		saved = next
		firstCreate = current == nil
		handedIn = next.Status == models.SubmissionStatusSubmitted && (current == nil || current.Status != models.SubmissionStatusSubmitted)
		return nil
	})
	if err != nil {
		return dto.SubmissionResponse{}, translateStoreError(err, "submission")
	}

	span.SetAttributes(
		attribute.String("submission.status", saved.Status),
		attribute.Bool("submission.is_late", saved.IsLate),
	)

	action := "submission.saved"
	if handedIn {
		action = "submission.submitted"
	}
	s.recordActivity(ctx, actor, action, saved, map[string]interface{}{
		"assignment_id": saved.AssignmentID,
		"status":        saved.Status,
		"is_late":       saved.IsLate,
		"created":       firstCreate,
	})

	if handedIn {
		s.publish(ctx, events.New(events.SubmissionSubmitted, "submission", saved.ID, actor.ID, map[string]interface{}{
			"assignment_id": saved.AssignmentID,
			"student_id":    saved.StudentID,
			"is_late":       saved.IsLate,
		}, s.clock.Now()))
	}

	return dto.NewSubmissionResponse(saved), nil
}

func (s *submissionService) Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor ActivityActor) (response dto.GradeResultResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()
	defer func() {
		recordOutcome("grade", err)
		if err != nil {
			failSpan(span, err)
		}
	}()

	if err := validatePayload(s.validator, payload); err != nil {
		return dto.GradeResultResponse{}, err
	}

	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))

	var (
		result     grading.GradeResult
		idempotent bool
	)
	err = retryOnConflict(ctx, s.retries, payload.Version, "submission", func() error {
		submission, err := s.submissions.GetByID(ctx, submissionID)
		if err != nil {
			return translateStoreError(err, "submission")
		}

		assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
		if err != nil {
			return translateStoreError(err, "assignment")
		}

		if !grading.CanGrade(actor.Role, actor.ID, assignment.OwnerID) {
			return grading.NewError(grading.KindForbidden, "you cannot grade submissions for this assignment")
		}
		if err := checkClientVersion(payload.Version, submission.Version, "submission"); err != nil {
			return err
		}

		graded, err := grading.Grade(submission, assignment, grading.GradeInput{
			RawGrade: *payload.Grade,
			Feedback: feedback,
			GraderID: actor.ID,
		}, s.clock.Now())
		if err != nil {
			return err
		}

		if sameGrade(submission, graded.RawGrade, feedback, actor.ID) {
			graded.Submission = submission
			result = graded
			idempotent = true
			return nil
		}

		if err := s.submissions.Update(ctx, &graded.Submission); err != nil {
			return err
		}
		result = graded
		idempotent = false
		return nil
	})
	if err != nil {
		return dto.GradeResultResponse{}, translateStoreError(err, "submission")
	}

	span.SetAttributes(
		attribute.Float64("grading.raw_grade", result.RawGrade),
		attribute.Float64("grading.final_grade", result.FinalGrade),
		attribute.Bool("grading.idempotent", idempotent),
	)

	submission := result.Submission
	if !idempotent {
		history := models.SubmissionGradeHistory{
			SubmissionID:   submission.ID,
			RawGrade:       result.RawGrade,
			FinalGrade:     result.FinalGrade,
			PenaltyApplied: result.PenaltyApplied,
			Feedback:       feedback,
			GradedBy:       actor.ID,
			GradedAt:       *submission.GradedAt,
		}
		if err := s.submissions.CreateHistory(ctx, &history); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist grading history")
			span.RecordError(err)
		}

		metadata := map[string]interface{}{
			"assignment_id":   submission.AssignmentID,
			"student_id":      submission.StudentID,
			"raw_grade":       result.RawGrade,
			"final_grade":     result.FinalGrade,
			"penalty_applied": result.PenaltyApplied,
		}
		s.recordActivity(ctx, actor, "submission.graded", submission, metadata)
		s.publish(ctx, events.New(events.SubmissionGraded, "submission", submission.ID, actor.ID, metadata, s.clock.Now()))
	}

	return dto.GradeResultResponse{
		Submission:     dto.NewSubmissionResponse(submission),
		RawGrade:       result.RawGrade,
		FinalGrade:     result.FinalGrade,
		PenaltyApplied: result.PenaltyApplied,
	}, nil
}

func (s *submissionService) Get(ctx context.Context, submissionID uint, actor ActivityActor) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, translateStoreError(err, "submission")
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, translateStoreError(err, "assignment")
	}

	if !grading.CanViewSubmission(actor.Role, actor.ID, submission.StudentID, assignment.OwnerID) {
		return dto.SubmissionResponse{}, grading.NewError(grading.KindForbidden, "you cannot view this submission")
	}

	if grading.CanGrade(actor.Role, actor.ID, assignment.OwnerID) {
		history, err := s.submissions.ListHistory(ctx, submission.ID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to load grading history")
		} else {
			submission.History = history
		}
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint, query dto.SubmissionListQuery, actor ActivityActor) ([]dto.SubmissionResponse, error) {
	if err := validatePayload(s.validator, query); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, translateStoreError(err, "assignment")
	}
	if !grading.CanGrade(actor.Role, actor.ID, assignment.OwnerID) {
		return nil, grading.NewError(grading.KindForbidden, "you cannot list submissions for this assignment")
	}

	filter := repository.SubmissionFilter{AssignmentID: &assignment.ID}
	if status := strings.TrimSpace(query.Status); status != "" {
		filter.Status = &status
	}
	if query.StudentID > 0 {
		filter.StudentID = &query.StudentID
	}

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponses(submissions), nil
}

func (s *submissionService) recordActivity(ctx context.Context, actor ActivityActor, action string, submission models.Submission, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := submission.ID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Uint("submission_id", id).Msg("failed to record activity")
	}
}

func (s *submissionService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Uint("entity_id", event.EntityID).Msg("failed to publish grading event")
	}
}

// sameGrade reports whether the grader is repeating the stored raw mark and feedback.
// The final grade alone is not enough: a penalty can map different raw marks to it.
func sameGrade(submission models.Submission, rawGrade float64, feedback string, graderID uint) bool {
	if submission.Status != models.SubmissionStatusGraded || submission.RawGrade == nil || submission.GradedBy == nil {
		return false
	}
	return math.Abs(*submission.RawGrade-rawGrade) < 1e-9 &&
		strings.TrimSpace(submission.Feedback) == feedback &&
		*submission.GradedBy == graderID
}
