package dto

import "time"

type CreateGuestSessionRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30" example:"Bob"`
}

func (c CreateGuestSessionRequest) Validate() error {
	return GetValidator().Struct(c)
}

type GuestSessionResponse struct {
	AccessToken string           `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresIn   int64            `json:"expires_in" example:"3600"`
	Session     GuestSessionInfo `json:"session"`
}

type GuestSessionInfo struct {
	ID        string    `json:"id" example:"gst_123456789"`
	Username  string    `json:"username" example:"Bob"`
	IsActive  bool      `json:"is_active" example:"true"`
	ExpiresAt time.Time `json:"expires_at" example:"2023-01-01T01:00:00Z"`
	CreatedAt time.Time `json:"created_at" example:"2023-01-01T00:00:00Z"`
}
