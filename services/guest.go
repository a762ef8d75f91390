package services

import (
	"errors"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

type GuestService struct {
	context.DefaultService

	sqlSvc   *PostgresService
	tokenSvc *TokenService
}

const GUEST_SVC = "guest_svc"

// Fixed TTL for anonymous sessions. Expired rows are never reclaimed;
// validation rechecks ExpiresAt on every read instead.
const GuestSessionTTL = time.Hour

func (svc GuestService) Id() string {
	return GUEST_SVC
}

func (svc *GuestService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *GuestService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.tokenSvc = svc.Service(TOKEN_SVC).(*TokenService)
	return nil
}

func (svc *GuestService) CreateSession(req dto.CreateGuestSessionRequest) (*dto.GuestSessionResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < 2 {
		return nil, shared.NewBadRequestError(errors.New("username too short"), "Username must be at least 2 characters")
	}

	now := time.Now()
	session := &model.GuestSession{
		SessionToken: newSessionToken(),
		Username:     username,
		IsActive:     true,
		ExpiresAt:    now.Add(GuestSessionTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	session, err := svc.sqlSvc.CreateGuestSession(session)
	if err != nil {
		return nil, err
	}

	accessToken, err := svc.tokenSvc.IssueGuestToken(session.ID, session.SessionToken, session.Username)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue guest token")
	}

	guestSessionsCreatedTotal.Inc()

	log.WithFields(log.Fields{
		"guest_id": session.ID,
		"username": session.Username,
	}).Info("Guest session created")

	return &dto.GuestSessionResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(GuestTokenDuration.Seconds()),
		Session:     guestSessionInfo(session),
	}, nil
}

// ValidateSession enforces the lazy expiry model: the row stays in the
// store after expiry and every validation rechecks the deadline.
func (svc *GuestService) ValidateSession(guestID string) (*model.GuestSession, error) {
	session, err := svc.sqlSvc.GetGuestSession(guestID)
	if err != nil {
		return nil, err
	}

	if !session.IsUsable(time.Now()) {
		return nil, shared.NewUnauthorizedError(ErrTokenExpired, "Guest session expired")
	}

	return session, nil
}

// InvalidateSession soft-deactivates the session. Unknown or already
// inactive sessions are treated as success.
func (svc *GuestService) InvalidateSession(guestID string) error {
	err := svc.sqlSvc.DeactivateGuestSession(guestID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == 404 {
			return nil
		}
		return err
	}

	log.WithField("guest_id", guestID).Info("Guest session invalidated")
	return nil
}

func (svc *GuestService) GetSessionInfo(guestID string) (*dto.GuestSessionInfo, error) {
	session, err := svc.ValidateSession(guestID)
	if err != nil {
		return nil, err
	}

	info := guestSessionInfo(session)
	return &info, nil
}

// newSessionToken returns an externally unguessable session identifier.
func newSessionToken() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return a + b
}

func guestSessionInfo(session *model.GuestSession) dto.GuestSessionInfo {
	return dto.GuestSessionInfo{
		ID:        session.ID,
		Username:  session.Username,
		IsActive:  session.IsActive,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
	}
}
