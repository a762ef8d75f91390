package model

import "time"

// Progress tracks completion of one module by one registered user.
// The composite unique index is what keeps concurrent upserts from
// creating two rows for the same (user, module) pair.
type Progress struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:idx_progress_user_module"`
	ModuleID      string    `json:"module_id" gorm:"not null;uniqueIndex:idx_progress_user_module"`
	CompletionPct float64   `json:"completion_pct" gorm:"not null;default:0"`
	TimeSpent     int       `json:"time_spent" gorm:"not null;default:0"` // in seconds
	Score         int       `json:"score" gorm:"not null;default:0"`
	Completed     bool      `json:"completed" gorm:"not null;default:false"`
	LastAccessed  time.Time `json:"last_accessed" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
