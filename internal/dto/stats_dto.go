package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
)

// AssignmentStatsResponse wraps submission statistics for one assignment.
type AssignmentStatsResponse struct {
	AssignmentID uint `json:"assignment_id"`
	grading.SubmissionStats
	GeneratedAt time.Time `json:"generated_at"`
}

// QuizStatsResponse wraps attempt statistics for one quiz.
type QuizStatsResponse struct {
	QuizID uint `json:"quiz_id"`
	grading.AttemptStats
	GeneratedAt time.Time `json:"generated_at"`
}
