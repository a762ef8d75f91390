package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

func newTestAuthService(t *testing.T) (*AuthService, *PostgresService) {
	t.Helper()
	store := newTestStore(t)
	tokenSvc := newTestTokenService()
	guestSvc := &GuestService{sqlSvc: store, tokenSvc: tokenSvc}
	return &AuthService{sqlSvc: store, tokenSvc: tokenSvc, guestSvc: guestSvc}, store
}

func TestAuthService_RegisterLoginMe(t *testing.T) {
	authSvc, store := newTestAuthService(t)

	registered, err := authSvc.Register(dto.RegisterRequest{
		Email:    " Ada@Example.com ",
		Username: "ada",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.UserID)

	// Email matching is case and whitespace insensitive.
	login, err := authSvc.Login(dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.Equal(t, int64(86400), login.ExpiresIn)
	assert.Equal(t, "ada", login.User.Username)
	assert.Equal(t, "ada@example.com", login.User.Email)
	assert.Equal(t, shared.RoleStudent, login.User.Role)

	identity, err := authSvc.tokenSvc.VerifyToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, identity.ID)

	me, err := authSvc.Me(*identity)
	require.NoError(t, err)
	assert.Equal(t, shared.KindRegistered, me.Kind)
	require.NotNil(t, me.User)
	assert.Equal(t, "ada", me.User.Username)
	assert.Nil(t, me.Session)

	// Login stamps last_login.
	user, err := store.GetUser(registered.UserID)
	require.NoError(t, err)
	assert.False(t, user.LastLogin.IsZero())
}

func TestAuthService_RegisterRejectsDuplicates(t *testing.T) {
	authSvc, _ := newTestAuthService(t)

	_, err := authSvc.Register(dto.RegisterRequest{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  dto.RegisterRequest
	}{
		{
			name: "duplicate email",
			req:  dto.RegisterRequest{Email: "ADA@example.com", Username: "ada2", Password: "SecurePass123!"},
		},
		{
			name: "duplicate username",
			req:  dto.RegisterRequest{Email: "other@example.com", Username: "ada", Password: "SecurePass123!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authSvc.Register(tt.req)
			require.Error(t, err)
			appErr, ok := shared.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusConflict, appErr.StatusCode)
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	authSvc, store := newTestAuthService(t)

	_, err := authSvc.Register(dto.RegisterRequest{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := authSvc.Login(dto.LoginRequest{Email: "nobody@example.com", Password: "SecurePass123!"})
		require.Error(t, err)
		appErr, ok := shared.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authSvc.Login(dto.LoginRequest{Email: "ada@example.com", Password: "WrongPass123!"})
		require.Error(t, err)
		appErr, ok := shared.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	})

	t.Run("deactivated account", func(t *testing.T) {
		err := store.db.Model(&model.User{}).Where("email = ?", "ada@example.com").
			Update("is_active", false).Error
		require.NoError(t, err)

		_, err = authSvc.Login(dto.LoginRequest{Email: "ada@example.com", Password: "SecurePass123!"})
		require.Error(t, err)
		appErr, ok := shared.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, appErr.StatusCode)
	})
}

func TestAuthService_MeForGuest(t *testing.T) {
	authSvc, _ := newTestAuthService(t)

	session, err := authSvc.guestSvc.CreateSession(dto.CreateGuestSessionRequest{Username: "SpeedyTurtle"})
	require.NoError(t, err)

	identity, err := authSvc.tokenSvc.VerifyToken(session.AccessToken)
	require.NoError(t, err)

	me, err := authSvc.Me(*identity)
	require.NoError(t, err)
	assert.Equal(t, shared.KindGuest, me.Kind)
	require.NotNil(t, me.Session)
	assert.Equal(t, "SpeedyTurtle", me.Session.Username)
	assert.Nil(t, me.User)
}
