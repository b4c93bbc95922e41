package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func correctAnswers() []dto.AttemptAnswerRequest {
	return []dto.AttemptAnswerRequest{
		{QuestionID: "q1", Answer: models.MultiAnswer("3", "2")},
		{QuestionID: "q2", Answer: models.SingleAnswer("true")},
	}
}

func TestAttemptServiceResumeThenSubmitAutoGrades(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{ConflictRetries: 3})
	quiz := f.createQuiz(t, false, nil)
	ctx := context.Background()

	started, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{
		Status:  "in-progress",
		Answers: []dto.AttemptAnswerRequest{{QuestionID: "q2", Answer: models.SingleAnswer("false")}},
	}, student)
	require.NoError(t, err)
	require.Equal(t, 1, started.AttemptNumber)
	require.Equal(t, models.AttemptStatusInProgress, started.Status)
	require.True(t, started.StartedAt.Equal(baseTime))
	require.Empty(t, f.publisher.types())

	f.clock.Set(baseTime.Add(90 * time.Second))
	submitted, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.NoError(t, err)
	require.Equal(t, started.ID, submitted.ID)
	require.Equal(t, 1, submitted.AttemptNumber)
	require.Equal(t, models.AttemptStatusGraded, submitted.Status)
	require.Equal(t, 20.0, submitted.Score)
	require.Equal(t, 100.0, submitted.Percentage)
	require.True(t, submitted.Passed)
	require.Equal(t, int64(90), submitted.TimeSpent)
	require.NotNil(t, submitted.GradedAt)
	require.Equal(t, []string{events.AttemptSubmitted, events.AttemptGraded}, f.publisher.types())
}

func TestAttemptServiceEnforcesAttemptLimit(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{})
	quiz := f.createQuiz(t, false, nil)
	ctx := context.Background()

	first, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.NoError(t, err)
	require.Equal(t, 1, first.AttemptNumber)

	second, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{
		Answers: []dto.AttemptAnswerRequest{{QuestionID: "q1", Answer: models.MultiAnswer("2")}},
	}, student)
	require.NoError(t, err)
	require.Equal(t, 2, second.AttemptNumber)
	require.Equal(t, 0.0, second.Score)
	require.False(t, second.Passed)

	_, err = svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.ErrorIs(t, err, grading.ErrAttemptsExhausted)

	other, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, otherStudent)
	require.NoError(t, err)
	require.Equal(t, 1, other.AttemptNumber)
}

func TestAttemptServiceRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{})
	ctx := context.Background()

	quiz := f.createQuiz(t, false, nil)
	_, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: []dto.AttemptAnswerRequest{
		{QuestionID: "q1", Answer: models.SingleAnswer("2")},
		{QuestionID: "q1", Answer: models.SingleAnswer("3")},
	}}, student)
	require.ErrorIs(t, err, grading.ErrValidationFailed)
	require.Equal(t, "answers", grading.FieldOf(err))

	_, err = svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Status: "graded"}, student)
	require.ErrorIs(t, err, grading.ErrValidationFailed)

	_, err = svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{}, teacher)
	require.ErrorIs(t, err, grading.ErrForbidden)

	hidden := f.createQuiz(t, false, func(q *models.Quiz) { q.IsPublished = false })
	_, err = svc.StartOrSubmit(ctx, hidden.ID, dto.AttemptSubmitRequest{}, student)
	require.ErrorIs(t, err, grading.ErrUnavailable)

	closedAt := baseTime.Add(-time.Hour)
	closed := f.createQuiz(t, false, func(q *models.Quiz) { q.AvailableUntil = &closedAt })
	_, err = svc.StartOrSubmit(ctx, closed.ID, dto.AttemptSubmitRequest{}, student)
	require.ErrorIs(t, err, grading.ErrDeadlinePassed)

	_, err = svc.StartOrSubmit(ctx, 999, dto.AttemptSubmitRequest{}, student)
	require.ErrorIs(t, err, grading.ErrNotFound)
}

func TestAttemptServiceManualGrading(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{})
	quiz := f.createQuiz(t, true, nil)
	ctx := context.Background()

	answers := append(correctAnswers(), dto.AttemptAnswerRequest{QuestionID: "q3", Answer: models.SingleAnswer("They pass values between goroutines")})
	submitted, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: answers}, student)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusSubmitted, submitted.Status)
	require.Equal(t, 20.0, submitted.Score)
	require.InDelta(t, 50.0, submitted.Percentage, 1e-9)
	require.False(t, submitted.Passed)
	require.Nil(t, submitted.GradedAt)

	request := dto.AttemptGradeRequest{
		Grades:   []dto.ManualGradeItem{{QuestionID: "q3", Points: floatPtr(25)}},
		Feedback: "Good <i>detail</i>",
	}

	_, err = svc.Grade(ctx, submitted.ID, request, otherTeacher)
	require.ErrorIs(t, err, grading.ErrForbidden)

	graded, err := svc.Grade(ctx, submitted.ID, request, teacher)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStatusGraded, graded.Status)
	require.Equal(t, 40.0, graded.Score)
	require.Equal(t, 100.0, graded.Percentage)
	require.True(t, graded.Passed)
	require.Equal(t, "Good detail", graded.Feedback)
	require.Equal(t, teacherID, *graded.GradedBy)

	regraded, err := svc.Grade(ctx, submitted.ID, dto.AttemptGradeRequest{
		Grades:  []dto.ManualGradeItem{{QuestionID: "q3", Points: floatPtr(2)}},
		Version: intPtr(graded.Version),
	}, admin)
	require.NoError(t, err)
	require.Equal(t, 22.0, regraded.Score)
	require.InDelta(t, 55.0, regraded.Percentage, 1e-9)
	require.False(t, regraded.Passed)

	_, err = svc.Grade(ctx, submitted.ID, dto.AttemptGradeRequest{
		Grades:  []dto.ManualGradeItem{{QuestionID: "q3", Points: floatPtr(5)}},
		Version: intPtr(graded.Version),
	}, admin)
	require.ErrorIs(t, err, grading.ErrConflict)

	_, err = svc.Grade(ctx, submitted.ID, dto.AttemptGradeRequest{
		Grades: []dto.ManualGradeItem{{QuestionID: "q3", Points: floatPtr(-1)}},
	}, teacher)
	require.ErrorIs(t, err, grading.ErrValidationFailed)

	_, err = svc.Grade(ctx, submitted.ID, dto.AttemptGradeRequest{}, teacher)
	require.ErrorIs(t, err, grading.ErrValidationFailed)
	require.Equal(t, "grades", grading.FieldOf(err))
}

func TestAttemptServiceGradeRejectsInProgress(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{})
	quiz := f.createQuiz(t, true, nil)
	ctx := context.Background()

	started, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Status: "in-progress"}, student)
	require.NoError(t, err)

	_, err = svc.Grade(ctx, started.ID, dto.AttemptGradeRequest{
		Grades: []dto.ManualGradeItem{{QuestionID: "q3", Points: floatPtr(5)}},
	}, teacher)
	require.ErrorIs(t, err, grading.ErrValidationFailed)
}

func TestAttemptServiceViewPolicy(t *testing.T) {
	f := newFixture(t)
	svc := f.attemptService(LifecycleConfig{})
	quiz := f.createQuiz(t, false, nil)
	ctx := context.Background()

	attempt, err := svc.StartOrSubmit(ctx, quiz.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.NoError(t, err)

	_, err = svc.Get(ctx, attempt.ID, student)
	require.NoError(t, err)
	_, err = svc.Get(ctx, attempt.ID, otherStudent)
	require.ErrorIs(t, err, grading.ErrForbidden)
	_, err = svc.Get(ctx, attempt.ID, teacher)
	require.NoError(t, err)
	_, err = svc.Get(ctx, 999, teacher)
	require.ErrorIs(t, err, grading.ErrNotFound)

	list, err := svc.ListByQuiz(ctx, quiz.ID, dto.AttemptListQuery{}, teacher)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.ListByQuiz(ctx, quiz.ID, dto.AttemptListQuery{}, otherTeacher)
	require.ErrorIs(t, err, grading.ErrForbidden)
}

func TestAttemptServiceScoresAgainstStoredTotalAndWarnsOnMismatch(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	svc := NewAttemptService(f.quizzes, f.attempts, NewValidator(), f.activity, f.publisher, f.clock, LifecycleConfig{}, zerolog.New(&logs))
	ctx := context.Background()

	consistent := f.createQuiz(t, false, nil)
	_, err := svc.StartOrSubmit(ctx, consistent.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.NoError(t, err)
	require.NotContains(t, logs.String(), "do not match")

	inflated := f.createQuiz(t, false, func(q *models.Quiz) { q.TotalPoints = 40 })
	attempt, err := svc.StartOrSubmit(ctx, inflated.ID, dto.AttemptSubmitRequest{Answers: correctAnswers()}, student)
	require.NoError(t, err)
	require.Equal(t, 20.0, attempt.Score)
	require.Equal(t, 50.0, attempt.Percentage)
	require.False(t, attempt.Passed)
	require.Contains(t, logs.String(), "quiz total points do not match its questions")
	require.Contains(t, logs.String(), `"question_total":20`)
}
