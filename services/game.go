package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

// GameService owns the append-only game result log and the ranked
// views over it.
type GameService struct {
	appContext.DefaultService

	sqlSvc   *PostgresService
	cacheSvc *RedisService
}

const GAME_SVC = "game_svc"

const (
	leaderboardDefaultLimit = 10
	leaderboardMaxLimit     = 100
	leaderboardCacheTTL     = 30 * time.Second
)

func (svc GameService) Id() string {
	return GAME_SVC
}

func (svc *GameService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *GameService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.cacheSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// RecordResult always inserts a new row; results are never updated or
// deleted. Exactly one of user id / guest session id is set, driven by
// the identity kind.
func (svc *GameService) RecordResult(identity shared.Identity, req dto.SubmitGameResultRequest) (*dto.GameResultResponse, error) {
	gameType := strings.TrimSpace(req.GameType)
	if gameType == "" {
		return nil, shared.NewBadRequestError(errors.New("empty game type"), "Game type is required")
	}
	if req.Score < 0 {
		return nil, shared.NewBadRequestError(errors.New("negative score"), "Score must not be negative")
	}
	if req.LevelReached < 1 {
		return nil, shared.NewBadRequestError(errors.New("level below 1"), "Level reached must be at least 1")
	}
	if req.TimePlayed < 0 {
		return nil, shared.NewBadRequestError(errors.New("negative time played"), "Time played must not be negative")
	}

	result := &model.GameResult{
		GameType:     gameType,
		Score:        req.Score,
		LevelReached: req.LevelReached,
		TimePlayed:   req.TimePlayed,
		PlayedAt:     time.Now(),
	}

	if identity.IsGuest() {
		guestID := identity.ID
		result.GuestSessionID = &guestID
	} else {
		userID := identity.ID
		result.UserID = &userID
	}

	if len(req.Metadata) > 0 {
		result.Metadata = datatypes.JSON(req.Metadata)
	}

	result, err := svc.sqlSvc.CreateGameResult(result)
	if err != nil {
		return nil, err
	}

	gameResultsRecordedTotal.WithLabelValues(gameType).Inc()
	svc.invalidateLeaderboardCache(gameType)

	log.WithFields(log.Fields{
		"game_type": gameType,
		"score":     req.Score,
		"kind":      identity.Kind,
	}).Debug("Game result recorded")

	return gameResultResponse(result), nil
}

// GetLeaderboard returns the top entries for one game type, ordered by
// score desc, level desc, time asc. The limit parameter tolerates junk
// input: non-numeric or non-positive values fall back to 10, anything
// above 100 is capped.
func (svc *GameService) GetLeaderboard(gameType, limitParam string) (*dto.LeaderboardResponse, error) {
	gameType = strings.TrimSpace(gameType)
	if gameType == "" {
		return nil, shared.NewBadRequestError(errors.New("empty game type"), "Game type is required")
	}

	limit := parseLeaderboardLimit(limitParam)

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", gameType, limit)
	var cached dto.LeaderboardResponse
	if hit, err := svc.cacheSvc.GetJSON(context.Background(), cacheKey, &cached); err == nil && hit {
		leaderboardCacheHitsTotal.Inc()
		return &cached, nil
	}
	leaderboardCacheMissesTotal.Inc()

	rows, err := svc.sqlSvc.GetTopGameResults(gameType, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.LeaderboardResponse{
		GameType: gameType,
		Entries:  make([]dto.LeaderboardEntry, len(rows)),
	}

	for i, row := range rows {
		resp.Entries[i] = dto.LeaderboardEntry{
			Rank:         i + 1,
			PlayerName:   resolvePlayerName(row),
			Score:        row.Score,
			LevelReached: row.LevelReached,
			TimePlayed:   row.TimePlayed,
			PlayedAt:     row.PlayedAt,
		}
	}

	if err := svc.cacheSvc.SetJSON(context.Background(), cacheKey, resp, leaderboardCacheTTL); err != nil {
		log.Printf("Failed to cache leaderboard %s: %v", cacheKey, err)
	}

	return resp, nil
}

// GetPersonalBest aggregates the caller's results for one game type.
// Players with no plays get a zero-count summary, not an error.
func (svc *GameService) GetPersonalBest(identity shared.Identity, gameType string) (*dto.PersonalBestResponse, error) {
	gameType = strings.TrimSpace(gameType)
	if gameType == "" {
		return nil, shared.NewBadRequestError(errors.New("empty game type"), "Game type is required")
	}

	agg, err := svc.sqlSvc.GetPlayerGameAggregate(identity.ID, identity.IsGuest(), gameType)
	if err != nil {
		return nil, err
	}

	resp := &dto.PersonalBestResponse{
		GameType:     gameType,
		PlayCount:    agg.PlayCount,
		BestScore:    agg.BestScore,
		BestLevel:    agg.BestLevel,
		FastestTime:  agg.FastestTime,
		AverageScore: agg.AverageScore,
	}

	if agg.PlayCount == 0 {
		return resp, nil
	}

	if agg.LastPlayedAt.Valid {
		lastPlayed := agg.LastPlayedAt.Time
		resp.LastPlayedAt = &lastPlayed
	}

	best, err := svc.sqlSvc.GetBestGameResult(identity.ID, identity.IsGuest(), gameType)
	if err != nil {
		return nil, err
	}
	resp.Best = gameResultResponse(best)

	return resp, nil
}

func (svc *GameService) GetSystemStats() (*dto.GameSystemStatsResponse, error) {
	return svc.sqlSvc.GetGameSystemStats()
}

func (svc *GameService) GetGameTypeStats(identity shared.Identity) (*dto.GameTypeStatsResponse, error) {
	stats, err := svc.sqlSvc.GetPlayerGameTypeStats(identity.ID, identity.IsGuest())
	if err != nil {
		return nil, err
	}

	return &dto.GameTypeStatsResponse{Stats: stats}, nil
}

func (svc *GameService) invalidateLeaderboardCache(gameType string) {
	pattern := fmt.Sprintf("leaderboard:%s:*", gameType)
	if err := svc.cacheSvc.DeletePattern(context.Background(), pattern); err != nil {
		log.Printf("Failed to invalidate leaderboard cache for %s: %v", gameType, err)
	}
}

func parseLeaderboardLimit(limitParam string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(limitParam))
	if err != nil || limit < 1 {
		return leaderboardDefaultLimit
	}
	if limit > leaderboardMaxLimit {
		return leaderboardMaxLimit
	}
	return limit
}

func resolvePlayerName(row RankedGameResult) string {
	if row.Username != "" {
		return row.Username
	}
	if row.GuestUsername != "" {
		return row.GuestUsername
	}
	return shared.AnonymousName
}

func gameResultResponse(result *model.GameResult) *dto.GameResultResponse {
	return &dto.GameResultResponse{
		ID:           result.ID,
		GameType:     result.GameType,
		Score:        result.Score,
		LevelReached: result.LevelReached,
		TimePlayed:   result.TimePlayed,
		PlayedAt:     result.PlayedAt,
	}
}
