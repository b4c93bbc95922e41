package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question types understood by the scoring engine.
const (
	QuestionTypeMultipleChoice = "multiple-choice"
	QuestionTypeTrueFalse      = "true-false"
	QuestionTypeShortAnswer    = "short-answer"
)

// QuestionOption is one selectable answer of a choice question.
type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is an immutable quiz item.
type Question struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Text    string           `json:"text"`
	Points  float64          `json:"points"`
	Options []QuestionOption `json:"options,omitempty"`
}

// Quiz is the teacher-owned definition an attempt is scored against.
type Quiz struct {
	ID                uint                          `gorm:"primaryKey" json:"id"`
	CourseID          uint                          `gorm:"index" json:"course_id"`
	OwnerID           uint                          `gorm:"index;not null" json:"owner_id"`
	Title             string                        `gorm:"size:255;not null" json:"title"`
	TotalPoints       float64                       `gorm:"not null;default:0" json:"total_points"`
	PassingPercentage float64                       `gorm:"not null;default:0" json:"passing_percentage"`
	AttemptsAllowed   int                           `gorm:"not null;default:1" json:"attempts_allowed"`
	AvailableFrom     *time.Time                    `json:"available_from"`
	AvailableUntil    *time.Time                    `json:"available_until"`
	IsPublished       bool                          `gorm:"not null;default:false" json:"is_published"`
	Questions         datatypes.JSONSlice[Question] `json:"questions"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
	Attempts          []QuizAttempt                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
