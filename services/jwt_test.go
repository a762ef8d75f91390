package services

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlab-edu/questlab_api/shared"
)

func TestTokenService_RegisteredTokenRoundTrip(t *testing.T) {
	tokenSvc := newTestTokenService()

	token, err := tokenSvc.IssueRegisteredToken("user-1", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := tokenSvc.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, shared.KindRegistered, identity.Kind)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.False(t, identity.IsGuest())
}

func TestTokenService_GuestTokenRoundTrip(t *testing.T) {
	tokenSvc := newTestTokenService()

	token, err := tokenSvc.IssueGuestToken("guest-1", "session-token-1", "SpeedyTurtle")
	require.NoError(t, err)

	identity, err := tokenSvc.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "guest-1", identity.ID)
	assert.Equal(t, shared.KindGuest, identity.Kind)
	assert.Equal(t, "session-token-1", identity.SessionID)
	assert.Equal(t, "SpeedyTurtle", identity.Username)
	assert.True(t, identity.IsGuest())
}

func TestTokenService_VerifyTokenRejectsExpired(t *testing.T) {
	tokenSvc := newTestTokenService()

	claims := &IdentityClaims{
		UserID: "user-1",
		Kind:   shared.KindRegistered,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			Issuer:    tokenIssuer,
		},
	}
	token, err := tokenSvc.sign(claims)
	require.NoError(t, err)

	_, err = tokenSvc.VerifyToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenExpired))

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

func TestTokenService_VerifyTokenRejectsBadInput(t *testing.T) {
	tokenSvc := newTestTokenService()

	otherSvc := &TokenService{jwtSecretKey: "a-different-secret"}
	foreignToken, err := otherSvc.IssueRegisteredToken("user-1", "ada@example.com")
	require.NoError(t, err)

	noKind, err := tokenSvc.sign(&IdentityClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    tokenIssuer,
		},
	})
	require.NoError(t, err)

	guestNoSession, err := tokenSvc.sign(&IdentityClaims{
		GuestID: "guest-1",
		Kind:    shared.KindGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    tokenIssuer,
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty token", token: "", wantErr: ErrTokenMissing},
		{name: "garbage token", token: "not.a.jwt", wantErr: ErrTokenInvalid},
		{name: "wrong signing key", token: foreignToken, wantErr: ErrTokenInvalid},
		{name: "missing kind claim", token: noKind, wantErr: ErrTokenInvalid},
		{name: "guest without session", token: guestNoSession, wantErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokenSvc.VerifyToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			appErr, ok := shared.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
		})
	}
}

func TestTokenService_ConfigureRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	tokenSvc := &TokenService{}
	require.Error(t, tokenSvc.Configure(nil))
}

func TestTokenService_ExtractTokenFromHeader(t *testing.T) {
	tokenSvc := newTestTokenService()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid bearer", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Token abc123", wantErr: true},
		{name: "bare token", header: "abc123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tokenSvc.ExtractTokenFromHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
