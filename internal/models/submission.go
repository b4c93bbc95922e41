package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// SubmissionStatusDraft marks saved but not yet handed-in work.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the submission has been handed in but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
)

// Attachment references an uploaded file. Storage lives outside this service.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Submission is one student's work for one assignment.
type Submission struct {
	ID           uint                            `gorm:"primaryKey" json:"id"`
	AssignmentID uint                            `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"assignment_id"`
	StudentID    uint                            `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	Content      string                          `gorm:"type:text" json:"content"`
	Attachments  datatypes.JSONSlice[Attachment] `json:"attachments"`
	Status       string                          `gorm:"size:32;not null" json:"status"`
	SubmittedAt  *time.Time                      `json:"submitted_at"`
	RawGrade     *float64                        `json:"raw_grade"`
	Grade        *float64                        `json:"grade"`
	Feedback     string                          `gorm:"type:text" json:"feedback"`
	GradedBy     *uint                           `json:"graded_by"`
	GradedAt     *time.Time                      `json:"graded_at"`
	IsLate       bool                            `gorm:"not null;default:false" json:"is_late"`
	Version      int                             `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
	History      []SubmissionGradeHistory        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SubmissionGradeHistory is the audit row appended on every grade write.
type SubmissionGradeHistory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"index;not null" json:"submission_id"`
	RawGrade       float64   `gorm:"not null" json:"raw_grade"`
	FinalGrade     float64   `gorm:"not null" json:"final_grade"`
	PenaltyApplied float64   `gorm:"not null;default:0" json:"penalty_applied"`
	Feedback       string    `gorm:"type:text" json:"feedback"`
	GradedBy       uint      `gorm:"not null" json:"graded_by"`
	GradedAt       time.Time `gorm:"not null" json:"graded_at"`
}
