package grading

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// SubmitInput carries a learner's save or hand-in request.
type SubmitInput struct {
	StudentID   uint
	Content     string
	Attachments []models.Attachment
	Status      string
}

// GradeInput carries a grader's decision for one submission.
type GradeInput struct {
	RawGrade float64
	Feedback string
	GraderID uint
}

// GradeResult is the graded submission plus the audit view of how the grade was derived.
type GradeResult struct {
	Submission     models.Submission
	RawGrade       float64
	FinalGrade     float64
	PenaltyApplied float64
}

// Submit applies a save or hand-in to the student's single submission slot and returns
// the new state. existing is nil on the first save. The returned record has not been
// persisted and keeps the version of existing; the store increments it on write.
func Submit(assignment models.Assignment, existing *models.Submission, input SubmitInput, now time.Time) (models.Submission, error) {
	if !assignment.IsPublished {
		return models.Submission{}, NewError(KindUnavailable, "assignment is not published")
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = models.SubmissionStatusSubmitted
	}
	if status != models.SubmissionStatusDraft && status != models.SubmissionStatusSubmitted {
		return models.Submission{}, FieldError("status", "status must be draft or submitted")
	}

	pastDue := now.After(assignment.DueDate)
	if pastDue && !assignment.LateSubmissionAllowed {
		return models.Submission{}, NewError(KindDeadlinePassed, "the due date for this assignment has passed")
	}

	var next models.Submission
	if existing != nil {
		switch existing.Status {
		case models.SubmissionStatusGraded:
			return models.Submission{}, NewError(KindForbidden, "graded submissions are read-only")
		case models.SubmissionStatusSubmitted:
			if status == models.SubmissionStatusDraft {
				return models.Submission{}, FieldError("status", "a submitted submission cannot return to draft")
			}
		}
		next = *existing
	} else {
		next = models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    input.StudentID,
			Version:      1,
		}
	}

	if status == models.SubmissionStatusSubmitted {
		if err := validateContent(assignment.SubmissionType, input.Content, input.Attachments); err != nil {
			return models.Submission{}, err
		}
	}

	next.Content = input.Content
	next.Attachments = append([]models.Attachment{}, input.Attachments...)

	if status == models.SubmissionStatusSubmitted && next.Status != models.SubmissionStatusSubmitted {
		// First hand-in freezes lateness and the submission time.
		submittedAt := now
		next.SubmittedAt = &submittedAt
		next.IsLate = pastDue
	}
	next.Status = status
	next.RawGrade = nil
	next.Grade = nil

	return next, nil
}

// Grade applies a grader's mark to a submitted or already graded submission. Calling it
// again with the same input yields the same final grade.
func Grade(submission models.Submission, assignment models.Assignment, input GradeInput, now time.Time) (GradeResult, error) {
	if submission.Status != models.SubmissionStatusSubmitted && submission.Status != models.SubmissionStatusGraded {
		return GradeResult{}, FieldError("status", "only submitted work can be graded")
	}

	raw := input.RawGrade
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 || raw > assignment.TotalMarks {
		return GradeResult{}, FieldError("grade", "grade must be between 0 and %s", formatMarks(assignment.TotalMarks))
	}

	final := raw
	if submission.IsLate {
		final = ApplyLatePenalty(raw, assignment.LatePenaltyPercentage)
	}

	next := submission
	next.RawGrade = &raw
	next.Grade = &final
	next.Feedback = input.Feedback
	next.Status = models.SubmissionStatusGraded
	graderID := input.GraderID
	next.GradedBy = &graderID
	gradedAt := now
	next.GradedAt = &gradedAt

	return GradeResult{
		Submission:     next,
		RawGrade:       raw,
		FinalGrade:     final,
		PenaltyApplied: raw - final,
	}, nil
}

// ApplyLatePenalty reduces raw by penaltyPercentage percent. The result always lies in
// [0, raw]; non-positive penalties leave the grade unchanged.
func ApplyLatePenalty(raw, penaltyPercentage float64) float64 {
	if penaltyPercentage <= 0 || math.IsNaN(penaltyPercentage) {
		return raw
	}
	final := raw - raw*penaltyPercentage/100
	return math.Min(raw, math.Max(0, final))
}

func validateContent(submissionType, content string, attachments []models.Attachment) error {
	hasText := strings.TrimSpace(content) != ""
	hasFiles := len(attachments) > 0

	switch submissionType {
	case models.SubmissionTypeFile:
		if !hasFiles {
			return FieldError("attachments", "at least one attachment is required")
		}
	case models.SubmissionTypeBoth:
		if !hasText && !hasFiles {
			return FieldError("content", "content or an attachment is required")
		}
	default:
		if !hasText {
			return FieldError("content", "content is required")
		}
	}
	return nil
}

func formatMarks(marks float64) string {
	return strconv.FormatFloat(marks, 'f', -1, 64)
}
