package dto

import "time"

type ModuleResponse struct {
	ID         string    `json:"id" example:"mod_123456789"`
	Slug       string    `json:"slug" example:"fractions-1"`
	Title      string    `json:"title" example:"Introduction to Fractions"`
	Subject    string    `json:"subject" example:"math"`
	Difficulty string    `json:"difficulty" example:"beginner"`
	Position   int       `json:"position" example:"1"`
	CreatedAt  time.Time `json:"created_at" example:"2023-01-01T00:00:00Z"`
}

type ModuleListResponse struct {
	Modules []ModuleResponse `json:"modules"`
}
