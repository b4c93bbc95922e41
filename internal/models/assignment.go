package models

import "time"

// Submission types accepted by an assignment.
const (
	SubmissionTypeText = "text"
	SubmissionTypeFile = "file"
	SubmissionTypeBoth = "both"
)

// Assignment is the teacher-owned definition a submission is graded against.
type Assignment struct {
	ID                    uint         `gorm:"primaryKey" json:"id"`
	CourseID              uint         `gorm:"index" json:"course_id"`
	OwnerID               uint         `gorm:"index;not null" json:"owner_id"`
	Title                 string       `gorm:"size:255;not null" json:"title"`
	Description           string       `gorm:"type:text" json:"description"`
	TotalMarks            float64      `gorm:"not null" json:"total_marks"`
	DueDate               time.Time    `gorm:"not null" json:"due_date"`
	SubmissionType        string       `gorm:"size:16;not null;default:text" json:"submission_type"`
	LateSubmissionAllowed bool         `gorm:"not null;default:false" json:"late_submission_allowed"`
	LatePenaltyPercentage float64      `gorm:"not null;default:0" json:"late_penalty_percentage"`
	MaxAttempts           int          `gorm:"not null;default:1" json:"max_attempts"`
	IsPublished           bool         `gorm:"not null;default:false" json:"is_published"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
	Submissions           []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
