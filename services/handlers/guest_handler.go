package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/shared"
)

type GuestHandler struct {
	guestSvc GuestServiceInterface
}

func NewGuestHandler(guestSvc GuestServiceInterface) *GuestHandler {
	return &GuestHandler{
		guestSvc: guestSvc,
	}
}

// @Summary Create Guest Session
// @Description Creates a time-boxed anonymous session and returns its access token
// @Tags guest
// @Accept  json
// @Produce json
// @Param createGuestSessionRequest body dto.CreateGuestSessionRequest true "Guest session request"
// @Success 201 {object} shared.Response{data=dto.GuestSessionResponse}
// @Router /api/v1/guest/session [post]
func (h *GuestHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateGuestSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.guestSvc.CreateSession(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Guest session created", resp)
}

// @Summary Guest Logout
// @Description Soft-deactivates the caller's guest session; idempotent
// @Tags guest
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Guest Bearer Token" default(Bearer <guest_token>)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/guest/logout [post]
func (h *GuestHandler) Logout(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok || !identity.IsGuest() {
		return shared.NewForbiddenError(errors.New("guest session required"), "Guest session required")
	}

	if err := h.guestSvc.InvalidateSession(identity.ID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", nil)
}

// @Summary Guest Session Info
// @Description Returns the caller's guest session details
// @Tags guest
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Guest Bearer Token" default(Bearer <guest_token>)
// @Success 200 {object} shared.Response{data=dto.GuestSessionInfo}
// @Router /api/v1/guest/session [get]
func (h *GuestHandler) SessionInfo(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok || !identity.IsGuest() {
		return shared.NewForbiddenError(errors.New("guest session required"), "Guest session required")
	}

	resp, err := h.guestSvc.GetSessionInfo(identity.ID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
