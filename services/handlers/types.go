package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/shared"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	Me(identity shared.Identity) (*dto.MeResponse, error)
	RequiredAuth() fiber.Handler
	RequiredRegisteredAuth() fiber.Handler
	OptionalAuth() fiber.Handler
}

type GuestServiceInterface interface {
	CreateSession(req dto.CreateGuestSessionRequest) (*dto.GuestSessionResponse, error)
	InvalidateSession(guestID string) error
	GetSessionInfo(guestID string) (*dto.GuestSessionInfo, error)
}

type ProgressServiceInterface interface {
	GetOrCreateProgress(identity shared.Identity, moduleID string) (*dto.ProgressResponse, error)
	UpsertProgress(identity shared.Identity, moduleID string, req dto.UpsertProgressRequest) (*dto.ProgressResponse, error)
	CompleteModule(identity shared.Identity, moduleID string, score int) (*dto.ProgressResponse, error)
}

type GameServiceInterface interface {
	RecordResult(identity shared.Identity, req dto.SubmitGameResultRequest) (*dto.GameResultResponse, error)
	GetLeaderboard(gameType, limitParam string) (*dto.LeaderboardResponse, error)
	GetPersonalBest(identity shared.Identity, gameType string) (*dto.PersonalBestResponse, error)
	GetSystemStats() (*dto.GameSystemStatsResponse, error)
	GetGameTypeStats(identity shared.Identity) (*dto.GameTypeStatsResponse, error)
}

type ModuleServiceInterface interface {
	GetModule(moduleID string) (*dto.ModuleResponse, error)
	ListModules() (*dto.ModuleListResponse, error)
}

// identityFromLocals pulls the Identity the auth middleware stored on
// the request context.
func identityFromLocals(c *fiber.Ctx) (shared.Identity, bool) {
	identity, ok := c.Locals(shared.IdentityKey).(shared.Identity)
	return identity, ok
}
