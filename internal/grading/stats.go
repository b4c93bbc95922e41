package grading

import (
	"math"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// SubmissionStats summarises one assignment's submissions.
type SubmissionStats struct {
	Total        int     `json:"total"`
	GradedCount  int     `json:"graded_count"`
	PendingCount int     `json:"pending_count"`
	AverageGrade float64 `json:"average_grade"`
	LateCount    int     `json:"late_count"`
	OnTimeCount  int     `json:"on_time_count"`
}

// AttemptStats summarises one quiz's attempts.
type AttemptStats struct {
	TotalAttempts int     `json:"total_attempts"`
	GradedCount   int     `json:"graded_count"`
	PendingCount  int     `json:"pending_count"`
	AverageScore  float64 `json:"average_score"`
	PassedCount   int     `json:"passed_count"`
	FailedCount   int     `json:"failed_count"`
	PassRate      float64 `json:"pass_rate"`
}

// SummarizeSubmissions scans submissions for one assignment. Recomputed on every call.
func SummarizeSubmissions(submissions []models.Submission) SubmissionStats {
	stats := SubmissionStats{Total: len(submissions)}
	var gradeTotal float64

	for _, submission := range submissions {
		switch submission.Status {
		case models.SubmissionStatusGraded:
			stats.GradedCount++
			if submission.Grade != nil {
				gradeTotal += *submission.Grade
			}
		case models.SubmissionStatusSubmitted:
			stats.PendingCount++
		}
		if submission.IsLate {
			stats.LateCount++
		}
	}

	stats.OnTimeCount = stats.Total - stats.LateCount
	if stats.GradedCount > 0 {
		stats.AverageGrade = Round(gradeTotal/float64(stats.GradedCount), 2)
	}
	return stats
}

// SummarizeAttempts scans attempts for one quiz. Recomputed on every call.
func SummarizeAttempts(attempts []models.QuizAttempt) AttemptStats {
	stats := AttemptStats{TotalAttempts: len(attempts)}
	var scoreTotal float64

	for _, attempt := range attempts {
		scoreTotal += attempt.Score
		switch attempt.Status {
		case models.AttemptStatusGraded:
			stats.GradedCount++
		case models.AttemptStatusSubmitted:
			stats.PendingCount++
		}
		if attempt.Passed {
			stats.PassedCount++
		} else if attempt.Status != models.AttemptStatusInProgress {
			stats.FailedCount++
		}
	}

	if stats.TotalAttempts > 0 {
		stats.AverageScore = scoreTotal / float64(stats.TotalAttempts)
		stats.PassRate = float64(stats.PassedCount) / float64(stats.TotalAttempts) * 100
	}
	return stats
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
