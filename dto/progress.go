package dto

import "time"

type UpsertProgressRequest struct {
	CompletionPct float64 `json:"completion_pct" validate:"gte=0,lte=100" example:"75.5"`
	TimeSpent     int     `json:"time_spent" validate:"gte=0" example:"420"`
	Score         int     `json:"score" validate:"gte=0" example:"80"`
}

func (u UpsertProgressRequest) Validate() error {
	return GetValidator().Struct(u)
}

type CompleteModuleRequest struct {
	Score int `json:"score" validate:"gte=0" example:"95"`
}

func (c CompleteModuleRequest) Validate() error {
	return GetValidator().Struct(c)
}

// ProgressResponse carries Persisted so guest callers can tell their
// writes were acknowledged but never stored.
type ProgressResponse struct {
	ModuleID      string     `json:"module_id" example:"mod_123456789"`
	CompletionPct float64    `json:"completion_pct" example:"75.5"`
	TimeSpent     int        `json:"time_spent" example:"420"`
	Score         int        `json:"score" example:"80"`
	Completed     bool       `json:"completed" example:"false"`
	Persisted     bool       `json:"persisted" example:"true"`
	LastAccessed  *time.Time `json:"last_accessed,omitempty" example:"2023-01-15T10:30:00Z"`
}
