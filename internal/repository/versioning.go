package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrVersionConflict indicates the row changed since the caller read it.
var ErrVersionConflict = errors.New("record version conflict")

// updateVersioned writes columns to the row identified by id only if its version still
// equals expected, bumping the version in the same statement.
func updateVersioned(ctx context.Context, db *gorm.DB, model interface{}, id uint, expected int, columns map[string]interface{}) error {
	columns["version"] = expected + 1

	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, expected).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrVersionConflict
}
