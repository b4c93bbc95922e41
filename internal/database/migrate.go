package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// Models lists every table owned by the assessment service, parents first.
func Models() []interface{} {
	return []interface{}{
		&models.Assignment{},
		&models.Submission{},
		&models.SubmissionGradeHistory{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.ActivityLog{},
	}
}

// Migrate creates or updates the schema for all service tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
