package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/service"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// SubmissionHandler exposes the submission lifecycle over HTTP.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Submit saves or hands in the caller's work for an assignment.
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var payload dto.SubmissionSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	submission, err := h.service.Submit(c.UserContext(), assignmentID, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to save submission")
	}

	return utils.SendSuccess(c, "submission saved", submission)
}

// ListByAssignment returns every submission for an assignment.
func (h *SubmissionHandler) ListByAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var query dto.SubmissionListQuery
	if err := c.QueryParser(&query); err != nil {
		return invalidPayload(c)
	}

	submissions, err := h.service.ListByAssignment(c.UserContext(), assignmentID, query, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to list submissions")
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"total": len(submissions)})
}

// Get returns one submission when the caller may see it.
func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	submission, err := h.service.Get(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// Grade records a grader's mark.
func (h *SubmissionHandler) Grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return invalidIdentifier(c)
	}

	var payload dto.SubmissionGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Grade(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to grade submission")
	}

	return utils.SendSuccess(c, "submission graded", result)
}
