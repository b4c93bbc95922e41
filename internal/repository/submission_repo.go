package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error
	ListHistory(ctx context.Context, submissionID uint) ([]models.SubmissionGradeHistory, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.Version <= 0 {
		submission.Version = 1
	}
	return r.db.WithContext(ctx).Create(submission).Error
}

// Update persists submission if nobody wrote it since it was read at submission.Version.
// On success submission.Version holds the new revision.
func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	now := time.Now().UTC()
	columns := map[string]interface{}{
		"content":      submission.Content,
		"attachments":  submission.Attachments,
		"status":       submission.Status,
		"submitted_at": submission.SubmittedAt,
		"raw_grade":    submission.RawGrade,
		"grade":        submission.Grade,
		"feedback":     submission.Feedback,
		"graded_by":    submission.GradedBy,
		"graded_at":    submission.GradedAt,
		"is_late":      submission.IsLate,
		"updated_at":   now,
	}

	if err := updateVersioned(ctx, r.db, &models.Submission{}, submission.ID, submission.Version, columns); err != nil {
		return err
	}

	submission.Version++
	submission.UpdatedAt = now
	return nil
}

func (r *submissionRepository) CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *submissionRepository) ListHistory(ctx context.Context, submissionID uint) ([]models.SubmissionGradeHistory, error) {
	var history []models.SubmissionGradeHistory
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("graded_at DESC").
		Order("id DESC").
		Find(&history).Error; err != nil {
		return nil, err
	}

	return history, nil
}
