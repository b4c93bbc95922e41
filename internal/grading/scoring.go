package grading

import (
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// ScoreResult is the output of ScoreAttempt.
type ScoreResult struct {
	Answers    []models.QuizAnswer
	Score      float64
	Percentage float64
	Passed     bool
}

// ScoreAttempt grades every auto-gradable answer against quiz and aggregates the
// result. It never mutates its inputs and returns the same result for the same input.
//
// Answers for question ids absent from the quiz are kept but earn nothing. When a
// question is answered more than once only the first answer is scored.
func ScoreAttempt(answers []models.QuizAnswer, quiz models.Quiz) ScoreResult {
	questions := indexQuestions(quiz.Questions)
	scored := make([]models.QuizAnswer, 0, len(answers))
	seen := make(map[string]struct{}, len(answers))

	for _, answer := range answers {
		next := copyAnswer(answer)
		question, ok := questions[answer.QuestionID]
		_, duplicate := seen[answer.QuestionID]
		if !ok || duplicate {
			next.IsCorrect = nil
			next.PointsEarned = 0
			scored = append(scored, next)
			continue
		}
		seen[answer.QuestionID] = struct{}{}

		switch question.Type {
		case models.QuestionTypeMultipleChoice:
			setOutcome(&next, question, multipleChoiceCorrect(question, answer.Answer))
		case models.QuestionTypeTrueFalse:
			setOutcome(&next, question, trueFalseCorrect(question, answer.Answer))
		case models.QuestionTypeShortAnswer:
			next.PointsEarned = clampPoints(next.PointsEarned, question.Points)
		default:
			next.IsCorrect = nil
			next.PointsEarned = 0
		}
		scored = append(scored, next)
	}

	score := SumPoints(scored)
	percentage := Percentage(score, quiz.TotalPoints)

	return ScoreResult{
		Answers:    scored,
		Score:      score,
		Percentage: percentage,
		Passed:     HasPassingGrade(quiz, percentage),
	}
}

// SumPoints totals pointsEarned across answers.
func SumPoints(answers []models.QuizAnswer) float64 {
	var total float64
	for _, answer := range answers {
		total += answer.PointsEarned
	}
	return total
}

// Percentage converts a score into a percentage of totalPoints, 0 when the quiz has no points.
func Percentage(score, totalPoints float64) float64 {
	if totalPoints <= 0 {
		return 0
	}
	return score * 100 / totalPoints
}

// HasPassingGrade reports whether percentage meets the quiz's passing threshold.
func HasPassingGrade(quiz models.Quiz, percentage float64) bool {
	return percentage >= quiz.PassingPercentage
}

// RequiresManualReview reports whether any question needs a human grader.
func RequiresManualReview(quiz models.Quiz) bool {
	for _, question := range quiz.Questions {
		if question.Type == models.QuestionTypeShortAnswer {
			return true
		}
	}
	return false
}

// TotalPoints sums question points. Definitions are expected to store the same value.
func TotalPoints(questions []models.Question) float64 {
	var total float64
	for _, question := range questions {
		total += question.Points
	}
	return total
}

func multipleChoiceCorrect(question models.Question, answer models.AnswerValue) bool {
	correct := make(map[string]struct{})
	for _, option := range question.Options {
		if option.IsCorrect {
			correct[option.Text] = struct{}{}
		}
	}
	if len(correct) == 0 {
		return false
	}

	selected := selections(answer)
	if len(selected) != len(correct) {
		return false
	}

	picked := make(map[string]struct{}, len(selected))
	for _, value := range selected {
		if _, dup := picked[value]; dup {
			return false
		}
		if _, ok := correct[value]; !ok {
			return false
		}
		picked[value] = struct{}{}
	}
	return true
}

func trueFalseCorrect(question models.Question, answer models.AnswerValue) bool {
	var correctText string
	count := 0
	for _, option := range question.Options {
		if option.IsCorrect {
			correctText = option.Text
			count++
		}
	}
	if count != 1 || len(answer.Values) != 1 {
		return false
	}
	return answer.Values[0] == correctText
}

// selections coerces an answer to a list. An empty single answer selects nothing.
func selections(answer models.AnswerValue) []string {
	if !answer.Multi && len(answer.Values) == 1 && answer.Values[0] == "" {
		return nil
	}
	return answer.Values
}

func setOutcome(answer *models.QuizAnswer, question models.Question, correct bool) {
	answer.IsCorrect = boolPtr(correct)
	if correct {
		answer.PointsEarned = question.Points
		return
	}
	answer.PointsEarned = 0
}

func clampPoints(points, limit float64) float64 {
	if points < 0 {
		return 0
	}
	if points > limit {
		return limit
	}
	return points
}

func indexQuestions(questions []models.Question) map[string]models.Question {
	index := make(map[string]models.Question, len(questions))
	for _, question := range questions {
		if _, exists := index[question.ID]; !exists {
			index[question.ID] = question
		}
	}
	return index
}

func copyAnswer(answer models.QuizAnswer) models.QuizAnswer {
	next := answer
	next.Answer = models.AnswerValue{
		Values: append([]string(nil), answer.Answer.Values...),
		Multi:  answer.Answer.Multi,
	}
	if answer.IsCorrect != nil {
		next.IsCorrect = boolPtr(*answer.IsCorrect)
	}
	return next
}

func boolPtr(v bool) *bool {
	return &v
}
