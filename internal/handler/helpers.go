package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || value == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(value), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		return id
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		return role
	}
	return ""
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// statusForKind maps the grading taxonomy onto HTTP status codes.
func statusForKind(kind grading.Kind) int {
	switch kind {
	case grading.KindNotFound:
		return fiber.StatusNotFound
	case grading.KindForbidden:
		return fiber.StatusForbidden
	case grading.KindDeadlinePassed, grading.KindAttemptsExhausted:
		return fiber.StatusUnprocessableEntity
	case grading.KindUnavailable:
		return fiber.StatusLocked
	case grading.KindValidationFailed:
		return fiber.StatusBadRequest
	case grading.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError writes the error envelope. Errors outside the taxonomy are logged and hidden.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	kind := grading.KindOf(err)
	if kind == "" {
		requestLogger(logger, c).Error().Err(err).Str("route", c.Path()).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}

	return utils.Fail(c, statusForKind(kind), err.Error(), &utils.ErrorBody{
		Kind:  string(kind),
		Field: grading.FieldOf(err),
	})
}

func invalidIdentifier(c *fiber.Ctx) error {
	return utils.Fail(c, fiber.StatusBadRequest, "invalid identifier", &utils.ErrorBody{
		Kind:  string(grading.KindValidationFailed),
		Field: "id",
	})
}

func invalidPayload(c *fiber.Ctx) error {
	return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", &utils.ErrorBody{
		Kind:  string(grading.KindValidationFailed),
		Field: "body",
	})
}
