package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// StatsHandler serves cohort statistics.
type StatsHandler struct {
	service service.StatsService
	logger  zerolog.Logger
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(service service.StatsService, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.With().Str("component", "stats_handler").Logger(),
	}
}

// Assignment returns submission statistics for one assignment.
func (h *StatsHandler) Assignment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	stats, err := h.service.AssignmentStats(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to compute submission statistics")
	}

	return utils.SendSuccess(c, "statistics computed", stats)
}

// Quiz returns attempt statistics for one quiz.
func (h *StatsHandler) Quiz(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	stats, err := h.service.QuizStats(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to compute attempt statistics")
	}

	return utils.SendSuccess(c, "statistics computed", stats)
}
