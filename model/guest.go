package model

import "time"

// GuestSession is a time-boxed anonymous identity. Sessions are
// soft-deactivated on logout and left in place after expiry; reads
// must always recheck IsActive and ExpiresAt.
type GuestSession struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	SessionToken string    `json:"session_token" gorm:"unique;not null"`
	Username     string    `json:"username" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (s *GuestSession) IsUsable(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
