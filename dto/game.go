package dto

import (
	"encoding/json"
	"time"
)

type SubmitGameResultRequest struct {
	GameType     string          `json:"game_type" validate:"required" example:"word_match"`
	Score        int             `json:"score" validate:"gte=0" example:"1200"`
	LevelReached int             `json:"level_reached" validate:"gte=1" example:"5"`
	TimePlayed   int             `json:"time_played" validate:"gte=0" example:"180"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

func (s SubmitGameResultRequest) Validate() error {
	return GetValidator().Struct(s)
}

type GameResultResponse struct {
	ID           string    `json:"id" example:"res_123456789"`
	GameType     string    `json:"game_type" example:"word_match"`
	Score        int       `json:"score" example:"1200"`
	LevelReached int       `json:"level_reached" example:"5"`
	TimePlayed   int       `json:"time_played" example:"180"`
	PlayedAt     time.Time `json:"played_at" example:"2023-01-15T10:30:00Z"`
}

// ==================== LEADERBOARD DTOs ====================

type LeaderboardResponse struct {
	GameType string             `json:"game_type" example:"word_match"`
	Entries  []LeaderboardEntry `json:"entries"`
}

type LeaderboardEntry struct {
	Rank         int       `json:"rank" example:"1"`
	PlayerName   string    `json:"player_name" example:"johndoe"`
	Score        int       `json:"score" example:"1200"`
	LevelReached int       `json:"level_reached" example:"5"`
	TimePlayed   int       `json:"time_played" example:"180"`
	PlayedAt     time.Time `json:"played_at" example:"2023-01-15T10:30:00Z"`
}

type PersonalBestResponse struct {
	GameType     string              `json:"game_type" example:"word_match"`
	PlayCount    int64               `json:"play_count" example:"12"`
	BestScore    int                 `json:"best_score" example:"1200"`
	BestLevel    int                 `json:"best_level" example:"5"`
	FastestTime  int                 `json:"fastest_time" example:"95"`
	AverageScore float64             `json:"average_score" example:"840.5"`
	LastPlayedAt *time.Time          `json:"last_played_at,omitempty" example:"2023-01-15T10:30:00Z"`
	Best         *GameResultResponse `json:"best,omitempty"`
}

// ==================== STATS DTOs ====================

type GameSystemStatsResponse struct {
	TotalResults      int64            `json:"total_results" example:"5230"`
	RegisteredPlayers int64            `json:"registered_players" example:"310"`
	GuestPlayers      int64            `json:"guest_players" example:"122"`
	GameTypes         int64            `json:"game_types" example:"4"`
	ResultsByType     map[string]int64 `json:"results_by_type"`
}

type GameTypeStatsResponse struct {
	Stats []GameTypeStat `json:"stats"`
}

type GameTypeStat struct {
	GameType     string  `json:"game_type" example:"word_match"`
	PlayCount    int64   `json:"play_count" example:"12"`
	BestScore    int     `json:"best_score" example:"1200"`
	AverageScore float64 `json:"average_score" example:"840.5"`
}
