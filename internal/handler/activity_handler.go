package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// ActivityHandler exposes the grading audit trail to administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// List returns audit entries, newest first.
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	var req dto.ActivityListRequest
	if err := c.QueryParser(&req); err != nil {
		return invalidPayload(c)
	}
	if req.PageSize == 0 {
		req.PageSize = 50
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list activity")
	}

	return utils.OK(c, result.Items, "activity retrieved", result.Pagination)
}
