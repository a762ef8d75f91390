package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada123", Password: "SecurePass123!"},
			wantErr: false,
		},
		{
			name:    "invalid email",
			req:     RegisterRequest{Email: "not-an-email", Username: "ada123", Password: "SecurePass123!"},
			wantErr: true,
		},
		{
			name:    "username too short",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ab", Password: "SecurePass123!"},
			wantErr: true,
		},
		{
			name:    "username not alphanumeric",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada!", Password: "SecurePass123!"},
			wantErr: true,
		},
		{
			name:    "password too short",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada123", Password: "Ab1!"},
			wantErr: true,
		},
		{
			name:    "password without uppercase",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada123", Password: "securepass123!"},
			wantErr: true,
		},
		{
			name:    "password without number",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada123", Password: "SecurePass!"},
			wantErr: true,
		},
		{
			name:    "password without special character",
			req:     RegisterRequest{Email: "ada@example.com", Username: "ada123", Password: "SecurePass123"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpsertProgressRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     UpsertProgressRequest
		wantErr bool
	}{
		{name: "valid", req: UpsertProgressRequest{CompletionPct: 75.5, TimeSpent: 420, Score: 80}},
		{name: "zero values", req: UpsertProgressRequest{}},
		{name: "full completion", req: UpsertProgressRequest{CompletionPct: 100}},
		{name: "completion above 100", req: UpsertProgressRequest{CompletionPct: 100.5}, wantErr: true},
		{name: "negative completion", req: UpsertProgressRequest{CompletionPct: -0.5}, wantErr: true},
		{name: "negative time spent", req: UpsertProgressRequest{TimeSpent: -1}, wantErr: true},
		{name: "negative score", req: UpsertProgressRequest{Score: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSubmitGameResultRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     SubmitGameResultRequest
		wantErr bool
	}{
		{name: "valid", req: SubmitGameResultRequest{GameType: "word_match", Score: 1200, LevelReached: 5, TimePlayed: 180}},
		{name: "missing game type", req: SubmitGameResultRequest{Score: 1200, LevelReached: 5}, wantErr: true},
		{name: "level below one", req: SubmitGameResultRequest{GameType: "word_match", LevelReached: 0}, wantErr: true},
		{name: "negative score", req: SubmitGameResultRequest{GameType: "word_match", Score: -1, LevelReached: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	err := RegisterRequest{Email: "bad", Username: "x", Password: "weak"}.Validate()
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	require.Len(t, formatted, 3)

	fields := make(map[string]string, len(formatted))
	for _, fe := range formatted {
		fields[fe.Field] = fe.Message
	}

	assert.Equal(t, "Invalid email format", fields["Email"])
	assert.Contains(t, fields["Username"], "at least 3")
	assert.Contains(t, fields["Password"], "uppercase")
}

func TestCreateValidationErrorResponse(t *testing.T) {
	err := LoginRequest{}.Validate()
	require.Error(t, err)

	resp := CreateValidationErrorResponse(err)
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Len(t, resp.Errors, 2)
}
