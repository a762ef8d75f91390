package model

import "time"

// LearningModule is the instructional catalog entry progress records
// point at. The catalog is read-only at runtime and seeded via the seed
// CLI or the startup defaults.
type LearningModule struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Slug       string    `json:"slug" gorm:"unique;not null"`
	Title      string    `json:"title" gorm:"not null"`
	Subject    string    `json:"subject"`
	Difficulty string    `json:"difficulty"` // beginner, intermediate, advanced
	Position   int       `json:"position" gorm:"not null"`
	IsActive   bool      `json:"is_active" gorm:"default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
