package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func TestStatsServiceAssignmentStats(t *testing.T) {
	f := newFixture(t)
	svc := f.statsService()
	assignment := f.createAssignment(t, nil)
	ctx := context.Background()

	grade := func(v float64) *float64 { return &v }
	rows := []models.Submission{
		{AssignmentID: assignment.ID, StudentID: 1, Status: models.SubmissionStatusGraded, Grade: grade(80)},
		{AssignmentID: assignment.ID, StudentID: 2, Status: models.SubmissionStatusGraded, Grade: grade(70), IsLate: true},
		{AssignmentID: assignment.ID, StudentID: 3, Status: models.SubmissionStatusSubmitted},
		{AssignmentID: assignment.ID, StudentID: 4, Status: models.SubmissionStatusDraft},
	}
	for i := range rows {
		require.NoError(t, f.submissions.Create(ctx, &rows[i]))
	}

	stats, err := svc.AssignmentStats(ctx, assignment.ID, teacher)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, stats.AssignmentID)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 2, stats.GradedCount)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, 75.0, stats.AverageGrade)
	require.Equal(t, 1, stats.LateCount)
	require.Equal(t, 3, stats.OnTimeCount)
	require.True(t, stats.GeneratedAt.Equal(baseTime))

	_, err = svc.AssignmentStats(ctx, assignment.ID, student)
	require.ErrorIs(t, err, grading.ErrForbidden)
	_, err = svc.AssignmentStats(ctx, 999, admin)
	require.ErrorIs(t, err, grading.ErrNotFound)
}

func TestStatsServiceQuizStats(t *testing.T) {
	f := newFixture(t)
	svc := f.statsService()
	quiz := f.createQuiz(t, false, nil)
	ctx := context.Background()

	rows := []models.QuizAttempt{
		{QuizID: quiz.ID, StudentID: 1, AttemptNumber: 1, Status: models.AttemptStatusGraded, Score: 20, Passed: true, StartedAt: baseTime},
		{QuizID: quiz.ID, StudentID: 2, AttemptNumber: 1, Status: models.AttemptStatusGraded, Score: 10, StartedAt: baseTime},
		{QuizID: quiz.ID, StudentID: 3, AttemptNumber: 1, Status: models.AttemptStatusSubmitted, Score: 0, StartedAt: baseTime},
		{QuizID: quiz.ID, StudentID: 4, AttemptNumber: 1, Status: models.AttemptStatusInProgress, StartedAt: baseTime},
	}
	for i := range rows {
		require.NoError(t, f.attempts.Create(ctx, &rows[i]))
	}

	stats, err := svc.QuizStats(ctx, quiz.ID, admin)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalAttempts)
	require.Equal(t, 2, stats.GradedCount)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, 7.5, stats.AverageScore)
	require.Equal(t, 1, stats.PassedCount)
	require.Equal(t, 2, stats.FailedCount)
	require.Equal(t, 25.0, stats.PassRate)

	_, err = svc.QuizStats(ctx, quiz.ID, otherTeacher)
	require.ErrorIs(t, err, grading.ErrForbidden)
}
