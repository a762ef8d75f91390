package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

func newTestGuestService(t *testing.T) (*GuestService, *PostgresService) {
	t.Helper()
	store := newTestStore(t)
	return &GuestService{sqlSvc: store, tokenSvc: newTestTokenService()}, store
}

func TestGuestService_CreateSession(t *testing.T) {
	guestSvc, _ := newTestGuestService(t)

	before := time.Now()
	resp, err := guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: "  SpeedyTurtle  "})
	require.NoError(t, err)

	assert.Equal(t, "SpeedyTurtle", resp.Session.Username)
	assert.True(t, resp.Session.IsActive)
	assert.NotEmpty(t, resp.Session.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	// ExpiresAt lands one hour out.
	assert.WithinDuration(t, before.Add(GuestSessionTTL), resp.Session.ExpiresAt, 5*time.Second)

	// The issued token resolves back to this session.
	identity, err := guestSvc.tokenSvc.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.ID, identity.ID)
	assert.Equal(t, shared.KindGuest, identity.Kind)
	assert.Equal(t, "SpeedyTurtle", identity.Username)
}

func TestGuestService_CreateSessionRejectsShortUsername(t *testing.T) {
	guestSvc, _ := newTestGuestService(t)

	_, err := guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: " x "})
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestGuestService_ValidateSessionLazyExpiry(t *testing.T) {
	guestSvc, store := newTestGuestService(t)

	resp, err := guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: "SpeedyTurtle"})
	require.NoError(t, err)

	session, err := guestSvc.ValidateSession(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "SpeedyTurtle", session.Username)

	// Push the deadline into the past. The row stays; validation is what
	// enforces expiry.
	err = store.db.Model(&model.GuestSession{}).Where("id = ?", resp.Session.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)

	_, err = guestSvc.ValidateSession(resp.Session.ID)
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)

	var count int64
	require.NoError(t, store.db.Model(&model.GuestSession{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGuestSession_IsUsableBoundary(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		session model.GuestSession
		want    bool
	}{
		{name: "fresh session", session: model.GuestSession{IsActive: true, ExpiresAt: now.Add(time.Hour)}, want: true},
		{name: "exactly at deadline", session: model.GuestSession{IsActive: true, ExpiresAt: now}, want: false},
		{name: "past deadline", session: model.GuestSession{IsActive: true, ExpiresAt: now.Add(-time.Second)}, want: false},
		{name: "deactivated", session: model.GuestSession{IsActive: false, ExpiresAt: now.Add(time.Hour)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.IsUsable(now))
		})
	}
}

func TestGuestService_InvalidateSession(t *testing.T) {
	guestSvc, _ := newTestGuestService(t)

	resp, err := guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: "SpeedyTurtle"})
	require.NoError(t, err)

	require.NoError(t, guestSvc.InvalidateSession(resp.Session.ID))

	_, err = guestSvc.ValidateSession(resp.Session.ID)
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)

	// Unknown sessions invalidate without error.
	assert.NoError(t, guestSvc.InvalidateSession("no-such-session"))
}

func TestGuestService_GetSessionInfo(t *testing.T) {
	guestSvc, _ := newTestGuestService(t)

	resp, err := guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: "SpeedyTurtle"})
	require.NoError(t, err)

	info, err := guestSvc.GetSessionInfo(resp.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Session.ID, info.ID)
	assert.Equal(t, "SpeedyTurtle", info.Username)

	_, err = guestSvc.GetSessionInfo("no-such-session")
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}
