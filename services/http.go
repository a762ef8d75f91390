package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	docs "github.com/questlab-edu/questlab_api/docs"
	"github.com/questlab-edu/questlab_api/services/handlers"
	"github.com/questlab-edu/questlab_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	guestSvc     *GuestService
	moduleSvc    *ModuleService
	progressSvc  *ProgressService
	gameSvc      *GameService
	rateLimitSvc *RateLimitService
	monitorSvc   *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.guestSvc = svc.Service(GUEST_SVC).(*GuestService)
	svc.moduleSvc = svc.Service(MODULE_SVC).(*ModuleService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.gameSvc = svc.Service(GAME_SVC).(*GameService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	docs.SwaggerInfo.BasePath = ""

	app := fiber.New(fiber.Config{
		AppName:      "QuestLab API",
		JSONEncoder:  shared.JSONMarshal,
		JSONDecoder:  shared.JSONUnmarshal,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
	}))
	app.Use(MonitoringMiddleware(svc.monitorSvc))

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	guestHandler := handlers.NewGuestHandler(svc.guestSvc)
	moduleHandler := handlers.NewModuleHandler(svc.moduleSvc)
	progressHandler := handlers.NewProgressHandler(svc.progressSvc)
	gameHandler := handlers.NewGameHandler(svc.gameSvc)

	v1 := app.Group("/api/v1", svc.rateLimitSvc.IPRateLimit())

	v1.Get("/ping", svc.ping)

	// ==================== AUTH ====================
	v1.Post("/register", svc.rateLimitSvc.RateLimit("register"), authHandler.Register)
	v1.Post("/login", svc.rateLimitSvc.RateLimit("login"), authHandler.Login)
	v1.Get("/me", svc.authSvc.RequiredAuth(), authHandler.Me)

	// ==================== GUEST SESSIONS ====================
	guest := v1.Group("/guest")
	guest.Post("/session", svc.rateLimitSvc.RateLimit("guest_session"), guestHandler.CreateSession)
	guest.Get("/session", svc.authSvc.RequiredAuth(), guestHandler.SessionInfo)
	guest.Post("/logout", svc.authSvc.RequiredAuth(), guestHandler.Logout)

	// ==================== MODULES ====================
	v1.Get("/modules", moduleHandler.ListModules)
	v1.Get("/modules/:moduleId", moduleHandler.GetModule)

	// ==================== PROGRESS ====================
	progress := v1.Group("/progress", svc.authSvc.RequiredAuth())
	progress.Get("/:moduleId", progressHandler.GetProgress)
	progress.Put("/:moduleId", svc.rateLimitSvc.UserBasedRateLimit("progress_write"), progressHandler.UpsertProgress)
	progress.Post("/:moduleId/complete", svc.rateLimitSvc.UserBasedRateLimit("progress_write"), progressHandler.CompleteModule)

	// ==================== GAMES ====================
	games := v1.Group("/games")
	games.Post("/results", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.UserBasedRateLimit("game_submit"), gameHandler.SubmitResult)
	games.Get("/stats", gameHandler.GetSystemStats)
	games.Get("/my-stats", svc.authSvc.RequiredRegisteredAuth(), gameHandler.GetMyStats)
	games.Get("/:gameType/leaderboard", svc.authSvc.OptionalAuth(), gameHandler.GetLeaderboard)
	games.Get("/:gameType/personal-best", svc.authSvc.RequiredAuth(), gameHandler.GetPersonalBest)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	svc.server = app

	log.Infof("HTTP server listening on :%v", svc.port)
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
