package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameResult is an append-only record of one game attempt. Exactly one
// of UserID/GuestSessionID is set, never both. Rows are inserted once
// and never updated or deleted.
type GameResult struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	UserID         *string        `json:"user_id,omitempty" gorm:"index"`
	GuestSessionID *string        `json:"guest_session_id,omitempty" gorm:"index"`
	GameType       string         `json:"game_type" gorm:"not null;index"`
	Score          int            `json:"score" gorm:"not null"`
	LevelReached   int            `json:"level_reached" gorm:"not null"`
	TimePlayed     int            `json:"time_played" gorm:"not null"` // in seconds
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	PlayedAt       time.Time      `json:"played_at" gorm:"not null;index"`
	CreatedAt      time.Time      `json:"created_at"`
}
