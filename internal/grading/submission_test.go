package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleAssignment() models.Assignment {
	return models.Assignment{
		ID:                    3,
		OwnerID:               50,
		TotalMarks:            100,
		DueDate:               baseTime,
		SubmissionType:        models.SubmissionTypeText,
		LateSubmissionAllowed: true,
		LatePenaltyPercentage: 10,
		MaxAttempts:           1,
		IsPublished:           true,
	}
}

func TestSubmitCreatesSubmissionOnTime(t *testing.T) {
	assignment := sampleAssignment()
	now := baseTime.Add(-time.Hour)

	submission, err := Submit(assignment, nil, SubmitInput{StudentID: 9, Content: "my essay"}, now)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.Equal(t, uint(9), submission.StudentID)
	require.Equal(t, assignment.ID, submission.AssignmentID)
	require.Equal(t, 1, submission.Version)
	require.False(t, submission.IsLate)
	require.NotNil(t, submission.SubmittedAt)
	require.True(t, submission.SubmittedAt.Equal(now))
	require.Nil(t, submission.Grade)
}

func TestSubmitRejectsUnpublishedAndPastDeadline(t *testing.T) {
	assignment := sampleAssignment()
	assignment.IsPublished = false
	_, err := Submit(assignment, nil, SubmitInput{Content: "x"}, baseTime)
	require.ErrorIs(t, err, ErrUnavailable)

	assignment = sampleAssignment()
	assignment.LateSubmissionAllowed = false
	_, err = Submit(assignment, nil, SubmitInput{Content: "x"}, baseTime.Add(time.Minute))
	require.ErrorIs(t, err, ErrDeadlinePassed)
	require.Equal(t, KindDeadlinePassed, KindOf(err))

	_, err = Submit(assignment, nil, SubmitInput{Content: "x"}, baseTime)
	require.NoError(t, err, "submitting exactly at the due date is on time")
}

func TestSubmitValidatesBySubmissionType(t *testing.T) {
	attachment := models.Attachment{Name: "report.pdf", URL: "https://files.test/report.pdf", Size: 10, Type: "application/pdf"}
	cases := []struct {
		name           string
		submissionType string
		input          SubmitInput
		wantErr        bool
		field          string
	}{
		{name: "file without attachments", submissionType: models.SubmissionTypeFile, input: SubmitInput{Content: "lots of text"}, wantErr: true, field: "attachments"},
		{name: "file with attachment", submissionType: models.SubmissionTypeFile, input: SubmitInput{Attachments: []models.Attachment{attachment}}},
		{name: "text blank", submissionType: models.SubmissionTypeText, input: SubmitInput{Content: "   "}, wantErr: true, field: "content"},
		{name: "text present", submissionType: models.SubmissionTypeText, input: SubmitInput{Content: "answer"}},
		{name: "both empty", submissionType: models.SubmissionTypeBoth, input: SubmitInput{}, wantErr: true, field: "content"},
		{name: "both with file only", submissionType: models.SubmissionTypeBoth, input: SubmitInput{Attachments: []models.Attachment{attachment}}},
		{name: "draft skips validation", submissionType: models.SubmissionTypeFile, input: SubmitInput{Status: models.SubmissionStatusDraft}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assignment := sampleAssignment()
			assignment.SubmissionType = tc.submissionType
			_, err := Submit(assignment, nil, tc.input, baseTime.Add(-time.Hour))
			if tc.wantErr {
				require.ErrorIs(t, err, ErrValidationFailed)
				require.Equal(t, tc.field, FieldOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSubmitFreezesLatenessAcrossResubmissions(t *testing.T) {
	assignment := sampleAssignment()

	draft, err := Submit(assignment, nil, SubmitInput{Status: models.SubmissionStatusDraft}, baseTime.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, draft.Status)
	require.Nil(t, draft.SubmittedAt)
	require.False(t, draft.IsLate)

	late := baseTime.Add(time.Hour)
	submitted, err := Submit(assignment, &draft, SubmitInput{Content: "v1"}, late)
	require.NoError(t, err)
	require.True(t, submitted.IsLate)
	require.True(t, submitted.SubmittedAt.Equal(late))

	resubmitted, err := Submit(assignment, &submitted, SubmitInput{Content: "v2"}, late.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "v2", resubmitted.Content)
	require.True(t, resubmitted.IsLate)
	require.True(t, resubmitted.SubmittedAt.Equal(late))
	require.Equal(t, submitted.Version, resubmitted.Version)
}

func TestSubmitOnTimeStaysOnTimeAfterLateEdit(t *testing.T) {
	assignment := sampleAssignment()
	first, err := Submit(assignment, nil, SubmitInput{Content: "v1"}, baseTime.Add(-time.Hour))
	require.NoError(t, err)

	edited, err := Submit(assignment, &first, SubmitInput{Content: "v2"}, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, edited.IsLate)
}

func TestSubmitForwardOnly(t *testing.T) {
	assignment := sampleAssignment()
	submitted, err := Submit(assignment, nil, SubmitInput{Content: "v1"}, baseTime.Add(-time.Hour))
	require.NoError(t, err)

	_, err = Submit(assignment, &submitted, SubmitInput{Status: models.SubmissionStatusDraft}, baseTime.Add(-time.Minute))
	require.ErrorIs(t, err, ErrValidationFailed)

	graded := submitted
	graded.Status = models.SubmissionStatusGraded
	_, err = Submit(assignment, &graded, SubmitInput{Content: "v3"}, baseTime.Add(-time.Minute))
	require.ErrorIs(t, err, ErrForbidden)

	_, err = Submit(assignment, nil, SubmitInput{Content: "x", Status: "graded"}, baseTime)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestGradeAppliesLatePenalty(t *testing.T) {
	assignment := sampleAssignment()
	submission := models.Submission{ID: 1, Status: models.SubmissionStatusSubmitted, IsLate: true, Version: 2}

	result, err := Grade(submission, assignment, GradeInput{RawGrade: 80, Feedback: "ok", GraderID: 50}, baseTime)
	require.NoError(t, err)
	require.Equal(t, 80.0, result.RawGrade)
	require.Equal(t, 72.0, result.FinalGrade)
	require.Equal(t, 8.0, result.PenaltyApplied)
	require.Equal(t, 72.0, *result.Submission.Grade)
	require.Equal(t, 80.0, *result.Submission.RawGrade)
	require.Equal(t, models.SubmissionStatusGraded, result.Submission.Status)
	require.Equal(t, uint(50), *result.Submission.GradedBy)
	require.True(t, result.Submission.GradedAt.Equal(baseTime))
	require.Equal(t, 2, result.Submission.Version)

	again, err := Grade(result.Submission, assignment, GradeInput{RawGrade: 80, Feedback: "ok", GraderID: 50}, baseTime)
	require.NoError(t, err)
	require.Equal(t, result.FinalGrade, again.FinalGrade, "re-grading must not compound the penalty")
}

func TestGradeOnTimeKeepsRawGrade(t *testing.T) {
	assignment := sampleAssignment()
	submission := models.Submission{Status: models.SubmissionStatusSubmitted}

	result, err := Grade(submission, assignment, GradeInput{RawGrade: 80}, baseTime)
	require.NoError(t, err)
	require.Equal(t, 80.0, result.FinalGrade)
	require.Zero(t, result.PenaltyApplied)
}

func TestGradeRejectsOutOfRangeAndDrafts(t *testing.T) {
	assignment := sampleAssignment()
	submitted := models.Submission{Status: models.SubmissionStatusSubmitted}

	for _, raw := range []float64{-1, 100.5} {
		_, err := Grade(submitted, assignment, GradeInput{RawGrade: raw}, baseTime)
		require.ErrorIs(t, err, ErrValidationFailed)
		require.Equal(t, "grade", FieldOf(err))
		require.Contains(t, err.Error(), "between 0 and 100")
	}

	_, err := Grade(models.Submission{Status: models.SubmissionStatusDraft}, assignment, GradeInput{RawGrade: 10}, baseTime)
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestApplyLatePenaltyBounds(t *testing.T) {
	for _, raw := range []float64{0, 0.5, 13.37, 50, 100} {
		for _, pct := range []float64{0, 1, 10, 33.3, 99.9, 100} {
			final := ApplyLatePenalty(raw, pct)
			require.GreaterOrEqual(t, final, 0.0)
			require.LessOrEqual(t, final, raw)
		}
	}
	require.Equal(t, 0.0, ApplyLatePenalty(80, 100))
	require.Equal(t, 80.0, ApplyLatePenalty(80, -5))
	require.Equal(t, 0.0, ApplyLatePenalty(80, 150))
}
