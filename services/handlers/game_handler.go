package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/shared"
)

type GameHandler struct {
	gameSvc GameServiceInterface
}

func NewGameHandler(gameSvc GameServiceInterface) *GameHandler {
	return &GameHandler{
		gameSvc: gameSvc,
	}
}

// @Summary Submit Game Result
// @Description Records a finished game run for the caller
// @Tags games
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Param submitGameResultRequest body dto.SubmitGameResultRequest true "Game result"
// @Success 201 {object} shared.Response{data=dto.GameResultResponse}
// @Router /api/v1/games/results [post]
func (h *GameHandler) SubmitResult(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	var req dto.SubmitGameResultRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.gameSvc.RecordResult(identity, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Game result recorded", resp)
}

// @Summary Get Leaderboard
// @Description Returns the top results for a game type, best score first
// @Tags games
// @Produce json
// @Param gameType path string true "Game type"
// @Param limit query int false "Number of entries (default 10, max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/games/{gameType}/leaderboard [get]
func (h *GameHandler) GetLeaderboard(c *fiber.Ctx) error {
	resp, err := h.gameSvc.GetLeaderboard(c.Params("gameType"), c.Query("limit"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get Personal Best
// @Description Returns the caller's best run and aggregates for a game type
// @Tags games
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Param gameType path string true "Game type"
// @Success 200 {object} shared.Response{data=dto.PersonalBestResponse}
// @Router /api/v1/games/{gameType}/personal-best [get]
func (h *GameHandler) GetPersonalBest(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	resp, err := h.gameSvc.GetPersonalBest(identity, c.Params("gameType"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get Game System Stats
// @Description Returns platform-wide play counts
// @Tags games
// @Produce json
// @Success 200 {object} shared.Response{data=dto.GameSystemStatsResponse}
// @Router /api/v1/games/stats [get]
func (h *GameHandler) GetSystemStats(c *fiber.Ctx) error {
	resp, err := h.gameSvc.GetSystemStats()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}

// @Summary Get My Game Stats
// @Description Returns the caller's per-game-type play summary
// @Tags games
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Bearer token" default(Bearer <token>)
// @Success 200 {object} shared.Response{data=dto.GameTypeStatsResponse}
// @Router /api/v1/games/my-stats [get]
func (h *GameHandler) GetMyStats(c *fiber.Ctx) error {
	identity, ok := identityFromLocals(c)
	if !ok {
		return shared.NewUnauthorizedError(errors.New("no identity in context"), "Unauthorized")
	}

	resp, err := h.gameSvc.GetGameTypeStats(identity)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Success", resp)
}
