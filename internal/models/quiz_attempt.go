package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	// AttemptStatusInProgress marks an attempt the student is still answering.
	AttemptStatusInProgress = "in-progress"
	// AttemptStatusSubmitted marks a handed-in attempt waiting on manual review.
	AttemptStatusSubmitted = "submitted"
	// AttemptStatusGraded marks a fully scored attempt.
	AttemptStatusGraded = "graded"
)

// AnswerValue holds either a single string answer or a list of selections and
// round-trips through JSON in the same shape it arrived in.
type AnswerValue struct {
	Values []string
	Multi  bool
}

// SingleAnswer wraps a plain string answer.
func SingleAnswer(value string) AnswerValue {
	return AnswerValue{Values: []string{value}}
}

// MultiAnswer wraps a list of selections.
func MultiAnswer(values ...string) AnswerValue {
	return AnswerValue{Values: append([]string{}, values...), Multi: true}
}

// MarshalJSON implements json.Marshaler.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.Multi {
		values := a.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	if len(a.Values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(a.Values[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*a = AnswerValue{}
		return nil
	case trimmed[0] == '[':
		var values []string
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("answer list: %w", err)
		}
		*a = AnswerValue{Values: values, Multi: true}
		return nil
	default:
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		*a = SingleAnswer(value)
		return nil
	}
}

// QuizAnswer is a student's answer to one question plus its scoring outcome.
type QuizAnswer struct {
	QuestionID   string      `json:"question_id"`
	Answer       AnswerValue `json:"answer"`
	IsCorrect    *bool       `json:"is_correct"`
	PointsEarned float64     `json:"points_earned"`
}

// QuizAttempt is one numbered pass at a quiz by a student.
type QuizAttempt struct {
	ID            uint                            `gorm:"primaryKey" json:"id"`
	QuizID        uint                            `gorm:"not null;uniqueIndex:idx_attempt_quiz_student_number" json:"quiz_id"`
	StudentID     uint                            `gorm:"not null;uniqueIndex:idx_attempt_quiz_student_number" json:"student_id"`
	AttemptNumber int                             `gorm:"not null;uniqueIndex:idx_attempt_quiz_student_number" json:"attempt_number"`
	Answers       datatypes.JSONSlice[QuizAnswer] `json:"answers"`
	Score         float64                         `gorm:"not null;default:0" json:"score"`
	Percentage    float64                         `gorm:"not null;default:0" json:"percentage"`
	Passed        bool                            `gorm:"not null;default:false" json:"passed"`
	Status        string                          `gorm:"size:32;not null" json:"status"`
	StartedAt     time.Time                       `gorm:"not null" json:"started_at"`
	SubmittedAt   *time.Time                      `json:"submitted_at"`
	TimeSpent     int64                           `gorm:"not null;default:0" json:"time_spent"`
	GradedBy      *uint                           `json:"graded_by"`
	GradedAt      *time.Time                      `json:"graded_at"`
	Feedback      string                          `gorm:"type:text" json:"feedback"`
	Version       int                             `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time                       `json:"created_at"`
	UpdatedAt     time.Time                       `json:"updated_at"`
}
