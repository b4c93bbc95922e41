package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

// StatsService computes cohort statistics on demand. Nothing is cached.
type StatsService interface {
	AssignmentStats(ctx context.Context, assignmentID uint, actor ActivityActor) (dto.AssignmentStatsResponse, error)
	QuizStats(ctx context.Context, quizID uint, actor ActivityActor) (dto.QuizStatsResponse, error)
}

type statsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	quizzes     repository.QuizRepository
	attempts    repository.QuizAttemptRepository
	clock       grading.Clock
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewStatsService constructs the statistics service.
func NewStatsService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	quizzes repository.QuizRepository,
	attempts repository.QuizAttemptRepository,
	clock grading.Clock,
	logger zerolog.Logger,
) StatsService {
	if clock == nil {
		clock = grading.SystemClock
	}
	return &statsService{
		assignments: assignments,
		submissions: submissions,
		quizzes:     quizzes,
		attempts:    attempts,
		clock:       clock,
		logger:      logger.With().Str("component", "stats_service").Logger(),
		tracer:      otel.Tracer(tracerPrefix + "stats"),
	}
}

func (s *statsService) AssignmentStats(ctx context.Context, assignmentID uint, actor ActivityActor) (response dto.AssignmentStatsResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "stats.assignment", trace.WithAttributes(attribute.Int64("stats.assignment_id", int64(assignmentID))))
	defer span.End()
	defer func() {
		if err != nil {
			failSpan(span, err)
		}
	}()

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentStatsResponse{}, translateStoreError(err, "assignment")
	}
	if !grading.CanViewStats(actor.Role, actor.ID, assignment.OwnerID) {
		return dto.AssignmentStatsResponse{}, grading.NewError(grading.KindForbidden, "you cannot view statistics for this assignment")
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignment.ID})
	if err != nil {
		return dto.AssignmentStatsResponse{}, err
	}

	stats := grading.SummarizeSubmissions(submissions)
	span.SetAttributes(attribute.Int("stats.total", stats.Total))
	s.logger.Debug().Uint("assignment_id", assignment.ID).Int("total", stats.Total).Msg("computed submission statistics")

	return dto.AssignmentStatsResponse{
		AssignmentID:    assignment.ID,
		SubmissionStats: stats,
		GeneratedAt:     s.clock.Now(),
	}, nil
}

func (s *statsService) QuizStats(ctx context.Context, quizID uint, actor ActivityActor) (response dto.QuizStatsResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "stats.quiz", trace.WithAttributes(attribute.Int64("stats.quiz_id", int64(quizID))))
	defer span.End()
	defer func() {
		if err != nil {
			failSpan(span, err)
		}
	}()

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return dto.QuizStatsResponse{}, translateStoreError(err, "quiz")
	}
	if !grading.CanViewStats(actor.Role, actor.ID, quiz.OwnerID) {
		return dto.QuizStatsResponse{}, grading.NewError(grading.KindForbidden, "you cannot view statistics for this quiz")
	}

	attempts, err := s.attempts.List(ctx, repository.AttemptFilter{QuizID: &quiz.ID})
	if err != nil {
		return dto.QuizStatsResponse{}, err
	}

	stats := grading.SummarizeAttempts(attempts)
	span.SetAttributes(attribute.Int("stats.total_attempts", stats.TotalAttempts))
	s.logger.Debug().Uint("quiz_id", quiz.ID).Int("total_attempts", stats.TotalAttempts).Msg("computed attempt statistics")

	return dto.QuizStatsResponse{
		QuizID:       quiz.ID,
		AttemptStats: stats,
		GeneratedAt:  s.clock.Now(),
	}, nil
}
