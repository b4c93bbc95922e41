package grading

import (
	"math"
	"strings"
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AnswerInput is a student's raw answer before scoring.
type AnswerInput struct {
	QuestionID string
	Answer     models.AnswerValue
}

// AttemptInput carries a save-progress or hand-in request for an attempt.
type AttemptInput struct {
	StudentID uint
	Answers   []AnswerInput
	Status    string
	StartedAt *time.Time
}

// ManualGrade is a grader's points for one short-answer question.
type ManualGrade struct {
	QuestionID string
	Points     float64
}

// ManualGradeInput carries a grader's review of one attempt.
type ManualGradeInput struct {
	Grades   []ManualGrade
	Feedback string
	GraderID uint
}

// StartOrSubmit creates the next attempt, saves progress on an in-progress one, or hands
// one in. existing is the student's in-progress attempt for this quiz, if any, and
// priorCompleted counts their submitted and graded attempts. A submit triggered by a
// caller-side timeout is handled exactly like one triggered by the student.
func StartOrSubmit(quiz models.Quiz, existing *models.QuizAttempt, priorCompleted int, input AttemptInput, now time.Time) (models.QuizAttempt, error) {
	if !quiz.IsPublished {
		return models.QuizAttempt{}, NewError(KindUnavailable, "quiz is not published")
	}
	if quiz.AvailableFrom != nil && now.Before(*quiz.AvailableFrom) {
		return models.QuizAttempt{}, NewError(KindUnavailable, "quiz is not open yet")
	}
	if quiz.AvailableUntil != nil && now.After(*quiz.AvailableUntil) {
		return models.QuizAttempt{}, NewError(KindDeadlinePassed, "quiz is no longer available")
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = models.AttemptStatusSubmitted
	}
	if status != models.AttemptStatusInProgress && status != models.AttemptStatusSubmitted {
		return models.QuizAttempt{}, FieldError("status", "status must be in-progress or submitted")
	}

	answers, err := collectAnswers(input.Answers)
	if err != nil {
		return models.QuizAttempt{}, err
	}

	var next models.QuizAttempt
	if existing != nil {
		if existing.Status != models.AttemptStatusInProgress {
			return models.QuizAttempt{}, NewError(KindConflict, "attempt %d has already been submitted", existing.AttemptNumber)
		}
		next = *existing
	} else {
		if priorCompleted < 0 {
			priorCompleted = 0
		}
		if priorCompleted >= quiz.AttemptsAllowed {
			return models.QuizAttempt{}, NewError(KindAttemptsExhausted, "all %d attempts have been used", quiz.AttemptsAllowed)
		}
		startedAt := now
		if input.StartedAt != nil && !input.StartedAt.IsZero() && !input.StartedAt.After(now) {
			startedAt = *input.StartedAt
		}
		next = models.QuizAttempt{
			QuizID:        quiz.ID,
			StudentID:     input.StudentID,
			AttemptNumber: priorCompleted + 1,
			StartedAt:     startedAt,
			Version:       1,
		}
	}

	next.Answers = answers
	next.Status = status

	if status == models.AttemptStatusSubmitted {
		submittedAt := now
		next.SubmittedAt = &submittedAt
		next.TimeSpent = TimeSpent(next.StartedAt, submittedAt)

		result := ScoreAttempt(answers, quiz)
		applyScore(&next, result)

		if !RequiresManualReview(quiz) {
			next.Status = models.AttemptStatusGraded
			gradedAt := now
			next.GradedAt = &gradedAt
		}
	}

	return next, nil
}

// ApplyManualGrades records a grader's points for short-answer questions and rescores
// the whole attempt from its current answers, so repeating a call is a no-op.
func ApplyManualGrades(attempt models.QuizAttempt, quiz models.Quiz, input ManualGradeInput, now time.Time) (models.QuizAttempt, error) {
	if attempt.Status == models.AttemptStatusInProgress {
		return models.QuizAttempt{}, FieldError("status", "attempt has not been submitted yet")
	}

	questions := indexQuestions(quiz.Questions)
	points := make(map[string]float64, len(input.Grades))
	for _, grade := range input.Grades {
		if math.IsNaN(grade.Points) || math.IsInf(grade.Points, 0) || grade.Points < 0 {
			return models.QuizAttempt{}, FieldError("grades", "points for question %s must be zero or more", grade.QuestionID)
		}
		question, ok := questions[grade.QuestionID]
		if !ok || question.Type != models.QuestionTypeShortAnswer {
			continue
		}
		points[grade.QuestionID] = math.Min(grade.Points, question.Points)
	}

	answers := make([]models.QuizAnswer, 0, len(attempt.Answers))
	for _, answer := range attempt.Answers {
		next := copyAnswer(answer)
		if earned, ok := points[answer.QuestionID]; ok {
			next.PointsEarned = earned
			next.IsCorrect = boolPtr(earned > 0)
		}
		answers = append(answers, next)
	}

	result := ScoreAttempt(answers, quiz)

	next := attempt
	applyScore(&next, result)
	next.Status = models.AttemptStatusGraded
	next.Feedback = input.Feedback
	graderID := input.GraderID
	next.GradedBy = &graderID
	gradedAt := now
	next.GradedAt = &gradedAt

	return next, nil
}

// TimeSpent returns whole seconds between start and submit, never negative.
func TimeSpent(startedAt, submittedAt time.Time) int64 {
	elapsed := submittedAt.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}

func applyScore(attempt *models.QuizAttempt, result ScoreResult) {
	attempt.Answers = result.Answers
	attempt.Score = result.Score
	attempt.Percentage = result.Percentage
	attempt.Passed = result.Passed
}

func collectAnswers(inputs []AnswerInput) ([]models.QuizAnswer, error) {
	answers := make([]models.QuizAnswer, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		id := strings.TrimSpace(input.QuestionID)
		if id == "" {
			return nil, FieldError("answers", "question id is required")
		}
		if _, dup := seen[id]; dup {
			return nil, FieldError("answers", "question %s is answered more than once", id)
		}
		seen[id] = struct{}{}
		answers = append(answers, models.QuizAnswer{
			QuestionID: id,
			Answer: models.AnswerValue{
				Values: append([]string(nil), input.Answer.Values...),
				Multi:  input.Answer.Multi,
			},
		})
	}
	return answers, nil
}
