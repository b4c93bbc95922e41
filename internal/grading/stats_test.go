package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

func floatPointer(v float64) *float64 {
	return &v
}

func TestSummarizeSubmissions(t *testing.T) {
	submissions := []models.Submission{
		{Status: models.SubmissionStatusGraded, Grade: floatPointer(80)},
		{Status: models.SubmissionStatusGraded, Grade: floatPointer(70)},
		{Status: models.SubmissionStatusGraded, Grade: floatPointer(70), IsLate: true},
		{Status: models.SubmissionStatusSubmitted, IsLate: true},
		{Status: models.SubmissionStatusDraft},
	}

	stats := SummarizeSubmissions(submissions)
	require.Equal(t, SubmissionStats{
		Total:        5,
		GradedCount:  3,
		PendingCount: 1,
		AverageGrade: 73.33,
		LateCount:    2,
		OnTimeCount:  3,
	}, stats)
}

func TestSummarizeEmptyCollections(t *testing.T) {
	require.Equal(t, SubmissionStats{}, SummarizeSubmissions(nil))
	require.Equal(t, AttemptStats{}, SummarizeAttempts(nil))
}

func TestSummarizeAttempts(t *testing.T) {
	attempts := []models.QuizAttempt{
		{Status: models.AttemptStatusGraded, Score: 30, Passed: true},
		{Status: models.AttemptStatusGraded, Score: 10},
		{Status: models.AttemptStatusSubmitted, Score: 20},
		{Status: models.AttemptStatusInProgress, Score: 0},
	}

	stats := SummarizeAttempts(attempts)
	require.Equal(t, 4, stats.TotalAttempts)
	require.Equal(t, 2, stats.GradedCount)
	require.Equal(t, 1, stats.PendingCount)
	require.Equal(t, 15.0, stats.AverageScore)
	require.Equal(t, 1, stats.PassedCount)
	require.Equal(t, 2, stats.FailedCount)
	require.Equal(t, 25.0, stats.PassRate)
}

func TestRound(t *testing.T) {
	require.Equal(t, 1.13, Round(1.125, 2))
	require.Equal(t, 3.0, Round(2.999, 2))
}
