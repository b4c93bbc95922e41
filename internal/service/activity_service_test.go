package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/models"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, NewValidator(), testLogger())

	ctx := middleware.ContextWithCorrelation(context.Background(), "corr-1")
	entry, err := svc.Record(ctx, ActivityEntry{
		ActorID:    1,
		ActorRole:  "Teacher",
		Action:     "Submission.Graded",
		EntityType: "submission",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"student_email": "student@example.com",
			"final_grade":   72.5,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, 72.5, entry.Metadata["final_grade"])
	require.Equal(t, "submission.graded", entry.Action)
	require.Equal(t, "teacher", entry.ActorRole)
	require.Equal(t, "corr-1", entry.CorrelationID)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, NewValidator(), testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "attempt"})
	require.Error(t, err)

	entry, err := svc.Record(context.Background(), ActivityEntry{Action: "attempt.graded", EntityType: "attempt"})
	require.NoError(t, err)
	require.Equal(t, "system", entry.ActorRole)
}

func TestActivityServiceListPaginates(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, NewValidator(), testLogger())
	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, ActorRole: "student", Action: "attempt.submitted", EntityType: "attempt"})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	require.Equal(t, int64(3), list.Pagination.TotalItems)
	require.Equal(t, 2, list.Pagination.TotalPages)

	_, err = svc.List(context.Background(), dto.ActivityListRequest{EntityType: "quiz"})
	require.ErrorIs(t, err, grading.ErrValidationFailed)
}

func ptrUint(v uint) *uint {
	return &v
}
