package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AttachmentRequest references a file the student already uploaded elsewhere.
type AttachmentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,url"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type" validate:"required,max=127"`
}

// SubmissionSubmitRequest saves a draft or hands in work for an assignment.
type SubmissionSubmitRequest struct {
	Content     string              `json:"content" validate:"max=100000"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,max=20,dive"`
	Status      string              `json:"status" validate:"omitempty,oneof=draft submitted"`
	Version     *int                `json:"version" validate:"omitempty,gte=1"`
}

// SubmissionGradeRequest is a grader's mark for one submission.
type SubmissionGradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback string   `json:"feedback" validate:"max=5000"`
	Version  *int     `json:"version" validate:"omitempty,gte=1"`
}

// SubmissionListQuery filters the submissions of one assignment.
type SubmissionListQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=draft submitted graded"`
	StudentID uint   `query:"student_id"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                             `json:"id"`
	AssignmentID uint                             `json:"assignment_id"`
	StudentID    uint                             `json:"student_id"`
	Content      string                           `json:"content"`
	Attachments  []models.Attachment              `json:"attachments"`
	Status       string                           `json:"status"`
	SubmittedAt  *time.Time                       `json:"submitted_at"`
	IsLate       bool                             `json:"is_late"`
	RawGrade     *float64                         `json:"raw_grade"`
	Grade        *float64                         `json:"grade"`
	Feedback     string                           `json:"feedback"`
	GradedBy     *uint                            `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	Version      int                              `json:"version"`
	History      []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	CreatedAt    time.Time                        `json:"created_at"`
	UpdatedAt    time.Time                        `json:"updated_at"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	RawGrade       float64   `json:"raw_grade"`
	FinalGrade     float64   `json:"final_grade"`
	PenaltyApplied float64   `json:"penalty_applied"`
	Feedback       string    `json:"feedback"`
	GradedBy       uint      `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}

// GradeResultResponse shows how a final grade was derived from the raw mark.
type GradeResultResponse struct {
	Submission     SubmissionResponse `json:"submission"`
	RawGrade       float64            `json:"raw_grade"`
	FinalGrade     float64            `json:"final_grade"`
	PenaltyApplied float64            `json:"penalty_applied"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	attachments := make([]models.Attachment, 0, len(model.Attachments))
	attachments = append(attachments, model.Attachments...)

	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Content:      model.Content,
		Attachments:  attachments,
		Status:       model.Status,
		SubmittedAt:  model.SubmittedAt,
		IsLate:       model.IsLate,
		RawGrade:     model.RawGrade,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		Version:      model.Version,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if len(model.History) > 0 {
		response.History = make([]SubmissionGradeHistoryResponse, 0, len(model.History))
		for _, history := range model.History {
			response.History = append(response.History, SubmissionGradeHistoryResponse{
				RawGrade:       history.RawGrade,
				FinalGrade:     history.FinalGrade,
				PenaltyApplied: history.PenaltyApplied,
				Feedback:       history.Feedback,
				GradedBy:       history.GradedBy,
				GradedAt:       history.GradedAt,
			})
		}
	}

	return response
}

// NewSubmissionResponses converts a list of submissions.
func NewSubmissionResponses(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionResponse(item))
	}
	return responses
}
