package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// AttemptHandler exposes quiz attempts over HTTP.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler constructs an AttemptHandler.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartOrSubmit starts, saves or hands in the caller's attempt.
func (h *AttemptHandler) StartOrSubmit(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var payload dto.AttemptSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	attempt, err := h.service.StartOrSubmit(c.UserContext(), quizID, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to save attempt")
	}

	return utils.SendSuccess(c, "attempt saved", attempt)
}

// ListByQuiz returns the attempts of a quiz.
func (h *AttemptHandler) ListByQuiz(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var query dto.AttemptListQuery
	if err := c.QueryParser(&query); err != nil {
		return invalidPayload(c)
	}

	attempts, err := h.service.ListByQuiz(c.UserContext(), quizID, query, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to list attempts")
	}

	return utils.OK(c, attempts, "attempts retrieved", fiber.Map{"total": len(attempts)})
}

// Get returns one attempt when the caller may see it.
func (h *AttemptHandler) Get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	attempt, err := h.service.Get(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to load attempt")
	}

	return utils.SendSuccess(c, "attempt retrieved", attempt)
}

// Grade applies manual points to short-answer questions.
func (h *AttemptHandler) Grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var payload dto.AttemptGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	attempt, err := h.service.Grade(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to grade attempt")
	}

	return utils.SendSuccess(c, "attempt graded", attempt)
}
