package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/shared"
)

type ProgressHandler struct {
	progressSvc ProgressServiceInterface
}

func NewProgressHandler(progressSvc ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{
		progressSvc: progressSvc,
	}
}

// @Summary Get Progress
// @Description Returns the caller's progress for a module. For registered
// @Description users the first read creates the backing row; guests get an
// @Description ephemeral zero-value view.
// @Tags progress
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Param moduleId path string true "Module ID"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{moduleId} [get]
func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	resp, err := h.progressSvc.GetOrCreateProgress(identity, c.Params("moduleId"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Upsert Progress
// @Description Writes the caller's progress for a module; guest writes are
// @Description acknowledged but never persisted
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Param moduleId path string true "Module ID"
// @Param upsertProgressRequest body dto.UpsertProgressRequest true "Progress update"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{moduleId} [put]
func (h *ProgressHandler) UpsertProgress(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	var req dto.UpsertProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.UpsertProgress(identity, c.Params("moduleId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Complete Module
// @Description Marks a module fully completed for the caller
// @Tags progress
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Param moduleId path string true "Module ID"
// @Param completeModuleRequest body dto.CompleteModuleRequest true "Completion details"
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/{moduleId}/complete [post]
func (h *ProgressHandler) CompleteModule(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	var req dto.CompleteModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.progressSvc.CompleteModule(identity, c.Params("moduleId"), req.Score)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
