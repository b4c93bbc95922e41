package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AttemptAnswerRequest is one answer in an attempt payload. answer is a string or a list.
type AttemptAnswerRequest struct {
	QuestionID string             `json:"question_id" validate:"required,max=64"`
	Answer     models.AnswerValue `json:"answer"`
}

// AttemptSubmitRequest starts, saves or hands in the student's attempt.
type AttemptSubmitRequest struct {
	Answers   []AttemptAnswerRequest `json:"answers" validate:"omitempty,max=500,dive"`
	Status    string                 `json:"status" validate:"omitempty,oneof=in-progress submitted"`
	StartedAt *time.Time             `json:"started_at"`
	Version   *int                   `json:"version" validate:"omitempty,gte=1"`
}

// ManualGradeItem carries points for one short-answer question.
type ManualGradeItem struct {
	QuestionID string   `json:"question_id" validate:"required,max=64"`
	Points     *float64 `json:"points" validate:"required"`
}

// AttemptGradeRequest is a grader's review of an attempt.
type AttemptGradeRequest struct {
	Grades   []ManualGradeItem `json:"grades" validate:"required,min=1,dive"`
	Feedback string            `json:"feedback" validate:"max=5000"`
	Version  *int              `json:"version" validate:"omitempty,gte=1"`
}

// AttemptListQuery filters the attempts of one quiz.
type AttemptListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=in-progress submitted graded"`
	StudentID uint   `query:"student_id"`
}

// AttemptResponse serializes a quiz attempt.
type AttemptResponse struct {
	ID            uint                `json:"id"`
	QuizID        uint                `json:"quiz_id"`
	StudentID     uint                `json:"student_id"`
	AttemptNumber int                 `json:"attempt_number"`
	Answers       []models.QuizAnswer `json:"answers"`
	Score         float64             `json:"score"`
	Percentage    float64             `json:"percentage"`
	Passed        bool                `json:"passed"`
	Status        string              `json:"status"`
	StartedAt     time.Time           `json:"started_at"`
	SubmittedAt   *time.Time          `json:"submitted_at"`
	TimeSpent     int64               `json:"time_spent"`
	GradedBy      *uint               `json:"graded_by"`
	GradedAt      *time.Time          `json:"graded_at"`
	Feedback      string              `json:"feedback"`
	Version       int                 `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewAttemptResponse converts a QuizAttempt model into a DTO.
func NewAttemptResponse(model models.QuizAttempt) AttemptResponse {
	answers := make([]models.QuizAnswer, 0, len(model.Answers))
	answers = append(answers, model.Answers...)

	return AttemptResponse{
		ID:            model.ID,
		QuizID:        model.QuizID,
		StudentID:     model.StudentID,
		AttemptNumber: model.AttemptNumber,
		Answers:       answers,
		Score:         model.Score,
		Percentage:    model.Percentage,
		Passed:        model.Passed,
		Status:        model.Status,
		StartedAt:     model.StartedAt,
		SubmittedAt:   model.SubmittedAt,
		TimeSpent:     model.TimeSpent,
		GradedBy:      model.GradedBy,
		GradedAt:      model.GradedAt,
		Feedback:      model.Feedback,
		Version:       model.Version,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewAttemptResponses converts a list of attempts.
func NewAttemptResponses(items []models.QuizAttempt) []AttemptResponse {
	responses := make([]AttemptResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAttemptResponse(item))
	}
	return responses
}
