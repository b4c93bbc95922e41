package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AttemptFilter narrows attempt queries.
type AttemptFilter struct {
	QuizID    *uint
	StudentID *uint
	Status    *string
}

// QuizAttemptRepository defines data operations for quiz attempts.
type QuizAttemptRepository interface {
	List(ctx context.Context, filter AttemptFilter) ([]models.QuizAttempt, error)
	GetByID(ctx context.Context, id uint) (models.QuizAttempt, error)
	FindInProgress(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error)
	CountCompleted(ctx context.Context, quizID, studentID uint) (int64, error)
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	Update(ctx context.Context, attempt *models.QuizAttempt) error
}

type quizAttemptRepository struct {
	db *gorm.DB
}

// NewQuizAttemptRepository instantiates the repository.
func NewQuizAttemptRepository(db *gorm.DB) QuizAttemptRepository {
	return &quizAttemptRepository{db: db}
}

func (r *quizAttemptRepository) List(ctx context.Context, filter AttemptFilter) ([]models.QuizAttempt, error) {
	query := r.db.WithContext(ctx).Model(&models.QuizAttempt{})

	if filter.QuizID != nil {
		query = query.Where("quiz_id = ?", *filter.QuizID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var attempts []models.QuizAttempt
	if err := query.Order("student_id ASC").Order("attempt_number ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *quizAttemptRepository) GetByID(ctx context.Context, id uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

func (r *quizAttemptRepository) FindInProgress(ctx context.Context, quizID, studentID uint) (models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Where("status = ?", models.AttemptStatusInProgress).
		Order("attempt_number DESC").
		First(&attempt).Error; err != nil {
		return models.QuizAttempt{}, err
	}

	return attempt, nil
}

// CountCompleted counts submitted and graded attempts for a student on a quiz.
func (r *quizAttemptRepository) CountCompleted(ctx context.Context, quizID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Where("status IN ?", []string{models.AttemptStatusSubmitted, models.AttemptStatusGraded}).
		Count(&count).Error
	return count, err
}

func (r *quizAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.Version <= 0 {
		attempt.Version = 1
	}
	return r.db.WithContext(ctx).Create(attempt).Error
}

// Update persists attempt if nobody wrote it since it was read at attempt.Version.
func (r *quizAttemptRepository) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	now := time.Now().UTC()
	columns := map[string]interface{}{
		"answers":      attempt.Answers,
		"score":        attempt.Score,
		"percentage":   attempt.Percentage,
		"passed":       attempt.Passed,
		"status":       attempt.Status,
		"submitted_at": attempt.SubmittedAt,
		"time_spent":   attempt.TimeSpent,
		"graded_by":    attempt.GradedBy,
		"graded_at":    attempt.GradedAt,
		"feedback":     attempt.Feedback,
		"updated_at":   now,
	}

	if err := updateVersioned(ctx, r.db, &models.QuizAttempt{}, attempt.ID, attempt.Version, columns); err != nil {
		return err
	}

	attempt.Version++
	attempt.UpdatedAt = now
	return nil
}
