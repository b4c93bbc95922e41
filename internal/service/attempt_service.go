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

// AttemptService drives quiz attempts from start through manual review.
type AttemptService interface {
	StartOrSubmit(ctx context.Context, quizID uint, payload dto.AttemptSubmitRequest, actor ActivityActor) (dto.AttemptResponse, error)
	Grade(ctx context.Context, attemptID uint, payload dto.AttemptGradeRequest, actor ActivityActor) (dto.AttemptResponse, error)
	Get(ctx context.Context, attemptID uint, actor ActivityActor) (dto.AttemptResponse, error)
	ListByQuiz(ctx context.Context, quizID uint, query dto.AttemptListQuery, actor ActivityActor) ([]dto.AttemptResponse, error)
}

type attemptService struct {
	quizzes   repository.QuizRepository
	attempts  repository.QuizAttemptRepository
	validator *validator.Validate
	activity  ActivityRecorder
	publisher events.Publisher
	clock     grading.Clock
	sanitizer *bluemonday.Policy
	retries   int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAttemptService constructs the attempt service.
func NewAttemptService(
	quizzes repository.QuizRepository,
	attempts repository.QuizAttemptRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	publisher events.Publisher,
	clock grading.Clock,
	cfg LifecycleConfig,
	logger zerolog.Logger,
) AttemptService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clock == nil {
		clock = grading.SystemClock
	}

	return &attemptService{
		quizzes:   quizzes,
		attempts:  attempts,
		validator: validate,
		activity:  activity,
		publisher: publisher,
		clock:     clock,
		sanitizer: bluemonday.StrictPolicy(),
		retries:   cfg.ConflictRetries,
		logger:    logger.With().Str("component", "attempt_service").Logger(),
		tracer:    otel.Tracer(tracerPrefix + "attempt"),
	}
}

func (s *attemptService) StartOrSubmit(ctx context.Context, quizID uint, payload dto.AttemptSubmitRequest, actor ActivityActor) (response dto.AttemptResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "attempt.start_or_submit", trace.WithAttributes(
		attribute.Int64("attempt.quiz_id", int64(quizID)),
		attribute.Int64("attempt.student_id", int64(actor.ID)),
	))
	defer span.End()
	defer func() {
		recordOutcome("attempt", err)
		if err != nil {
			failSpan(span, err)
		}
	}()

	if !grading.CanSubmit(actor.Role) {
		return dto.AttemptResponse{}, grading.NewError(grading.KindForbidden, "only students can attempt quizzes")
	}
	if err := validatePayload(s.validator, payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return dto.AttemptResponse{}, translateStoreError(err, "quiz")
	}
	s.checkDefinition(quiz)

	input := grading.AttemptInput{
		StudentID: actor.ID,
		Answers:   make([]grading.AnswerInput, 0, len(payload.Answers)),
		Status:    payload.Status,
		StartedAt: payload.StartedAt,
	}
	for _, answer := range payload.Answers {
		input.Answers = append(input.Answers, grading.AnswerInput{QuestionID: answer.QuestionID, Answer: answer.Answer})
	}

	var saved models.QuizAttempt
	err = retryOnConflict(ctx, s.retries, payload.Version, "attempt", func() error {
		var current *models.QuizAttempt
		existing, lookupErr := s.attempts.FindInProgress(ctx, quiz.ID, actor.ID)
		switch {
		case lookupErr == nil:
			current = &existing
			if err := checkClientVersion(payload.Version, existing.Version, "attempt"); err != nil {
				return err
			}
		case !errors.Is(lookupErr, gorm.ErrRecordNotFound):
			return lookupErr
		}

		completed, err := s.attempts.CountCompleted(ctx, quiz.ID, actor.ID)
		if err != nil {
			return err
		}

		next, err := grading.StartOrSubmit(quiz, current, int(completed), input, s.clock.Now())
		if err != nil {
			return err
		}

		if current == nil {
			err = s.attempts.Create(ctx, &next)
		} else {
			err = s.attempts.Update(ctx, &next)
		}
		if err != nil {
			return err
		}

		saved = next
		return nil
	})
	if err != nil {
		return dto.AttemptResponse{}, translateStoreError(err, "attempt")
	}

	span.SetAttributes(
		attribute.Int("attempt.number", saved.AttemptNumber),
		attribute.String("attempt.status", saved.Status),
		attribute.Float64("attempt.score", saved.Score),
	)

	if saved.Status == models.AttemptStatusInProgress {
		s.recordActivity(ctx, actor, "attempt.saved", saved, map[string]interface{}{
			"quiz_id":        saved.QuizID,
			"attempt_number": saved.AttemptNumber,
			"answers":        len(saved.Answers),
		})
		return dto.NewAttemptResponse(saved), nil
	}

	metadata := map[string]interface{}{
		"quiz_id":        saved.QuizID,
		"student_id":     saved.StudentID,
		"attempt_number": saved.AttemptNumber,
		"score":          saved.Score,
		"percentage":     saved.Percentage,
		"passed":         saved.Passed,
		"status":         saved.Status,
	}
	s.recordActivity(ctx, actor, "attempt.submitted", saved, metadata)
	s.publish(ctx, events.New(events.AttemptSubmitted, "attempt", saved.ID, actor.ID, metadata, s.clock.Now()))
	if saved.Status == models.AttemptStatusGraded {
		s.publish(ctx, events.New(events.AttemptGraded, "attempt", saved.ID, actor.ID, metadata, s.clock.Now()))
	}

	return dto.NewAttemptResponse(saved), nil
}

func (s *attemptService) Grade(ctx context.Context, attemptID uint, payload dto.AttemptGradeRequest, actor ActivityActor) (response dto.AttemptResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "attempt.manual_grade", trace.WithAttributes(
		attribute.Int64("grading.attempt_id", int64(attemptID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()
	defer func() {
		recordOutcome("manual_grade", err)
		if err != nil {
			failSpan(span, err)
		}
	}()

	if err := validatePayload(s.validator, payload); err != nil {
		return dto.AttemptResponse{}, err
	}

	input := grading.ManualGradeInput{
		Grades:   make([]grading.ManualGrade, 0, len(payload.Grades)),
		Feedback: strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
		GraderID: actor.ID,
	}
	for _, grade := range payload.Grades {
		input.Grades = append(input.Grades, grading.ManualGrade{QuestionID: strings.TrimSpace(grade.QuestionID), Points: *grade.Points})
	}

	var saved models.QuizAttempt
	err = retryOnConflict(ctx, s.retries, payload.Version, "attempt", func() error {
		attempt, err := s.attempts.GetByID(ctx, attemptID)
		if err != nil {
			return translateStoreError(err, "attempt")
		}

		quiz, err := s.quizzes.GetByID(ctx, attempt.QuizID)
		if err != nil {
			return translateStoreError(err, "quiz")
		}
		s.checkDefinition(quiz)

		if !grading.CanGrade(actor.Role, actor.ID, quiz.OwnerID) {
			return grading.NewError(grading.KindForbidden, "you cannot grade attempts for this quiz")
		}
		if err := checkClientVersion(payload.Version, attempt.Version, "attempt"); err != nil {
			return err
		}

		next, err := grading.ApplyManualGrades(attempt, quiz, input, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.attempts.Update(ctx, &next); err != nil {
			return err
		}

		saved = next
		return nil
	})
	if err != nil {
		return dto.AttemptResponse{}, translateStoreError(err, "attempt")
	}

	span.SetAttributes(
		attribute.Float64("grading.score", saved.Score),
		attribute.Bool("grading.passed", saved.Passed),
	)

	metadata := map[string]interface{}{
		"quiz_id":        saved.QuizID,
		"student_id":     saved.StudentID,
		"attempt_number": saved.AttemptNumber,
		"score":          saved.Score,
		"percentage":     saved.Percentage,
		"passed":         saved.Passed,
	}
	s.recordActivity(ctx, actor, "attempt.graded", saved, metadata)
	s.publish(ctx, events.New(events.AttemptGraded, "attempt", saved.ID, actor.ID, metadata, s.clock.Now()))

	return dto.NewAttemptResponse(saved), nil
}

func (s *attemptService) Get(ctx context.Context, attemptID uint, actor ActivityActor) (dto.AttemptResponse, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return dto.AttemptResponse{}, translateStoreError(err, "attempt")
	}

	quiz, err := s.quizzes.GetByID(ctx, attempt.QuizID)
	if err != nil {
		return dto.AttemptResponse{}, translateStoreError(err, "quiz")
	}

	if !grading.CanViewSubmission(actor.Role, actor.ID, attempt.StudentID, quiz.OwnerID) {
		return dto.AttemptResponse{}, grading.NewError(grading.KindForbidden, "you cannot view this attempt")
	}

	return dto.NewAttemptResponse(attempt), nil
}

func (s *attemptService) ListByQuiz(ctx context.Context, quizID uint, query dto.AttemptListQuery, actor ActivityActor) ([]dto.AttemptResponse, error) {
	if err := validatePayload(s.validator, query); err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, translateStoreError(err, "quiz")
	}
	if !grading.CanGrade(actor.Role, actor.ID, quiz.OwnerID) {
		return nil, grading.NewError(grading.KindForbidden, "you cannot list attempts for this quiz")
	}

	filter := repository.AttemptFilter{QuizID: &quiz.ID}
	if status := strings.TrimSpace(query.Status); status != "" {
		filter.Status = &status
	}
	if query.StudentID > 0 {
		filter.StudentID = &query.StudentID
	}

	attempts, err := s.attempts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptResponses(attempts), nil
}

func (s *attemptService) recordActivity(ctx context.Context, actor ActivityActor, action string, attempt models.QuizAttempt, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := attempt.ID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "attempt",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Uint("attempt_id", id).Msg("failed to record activity")
	}
}

func (s *attemptService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Uint("entity_id", event.EntityID).Msg("failed to publish grading event")
	}
}

// checkDefinition flags quizzes whose stored total disagrees with their questions.
// Scoring always uses the stored total.
func (s *attemptService) checkDefinition(quiz models.Quiz) {
	sum := grading.TotalPoints(quiz.Questions)
	if math.Abs(sum-quiz.TotalPoints) > 1e-9 {
		s.logger.Warn().
			Uint("quiz_id", quiz.ID).
			Float64("stored_total", quiz.TotalPoints).
			Float64("question_total", sum).
			Msg("quiz total points do not match its questions")
	}
}
