package dto

import (
	"time"

	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityListRequest defines filters for retrieving the audit trail.
type ActivityListRequest struct {
	Page       int    `query:"page" validate:"omitempty,gte=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,gte=1,lte=200"`
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action" validate:"omitempty,max=64"`
	EntityType string `query:"entity_type" validate:"omitempty,oneof=submission attempt"`
	EntityID   uint   `query:"entity_id"`
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID            uint                   `json:"id"`
	ActorID       uint                   `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *uint                  `json:"entity_id"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an ActivityLog row.
func NewActivityResponse(model models.ActivityLog) ActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range model.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:            model.ID,
		ActorID:       model.ActorID,
		ActorRole:     model.ActorRole,
		Action:        model.Action,
		EntityType:    model.EntityType,
		EntityID:      model.EntityID,
		CorrelationID: model.CorrelationID,
		Metadata:      metadata,
		CreatedAt:     model.CreatedAt,
	}
}
