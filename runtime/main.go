package main

import (
	"github.com/questlab-edu/questlab_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title QuestLab API
// @version 1.0
// @description Identity, learning progress and game result backend for the QuestLab platform.
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.TokenService{},
		&services.PostgresService{},
		&services.RedisService{},
		&services.MonitoringService{},
		&services.RateLimitService{},

		&services.GuestService{},
		&services.ModuleService{},
		&services.AuthService{},
		&services.ProgressService{},
		&services.GameService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Msg("Service context exited")
		return
	}
}
