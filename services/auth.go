package services

import (
	"errors"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

// AuthService owns the registered identity lifecycle and the fiber
// auth middlewares that gate routes on a verified Identity.
type AuthService struct {
	context.DefaultService

	sqlSvc   *PostgresService
	tokenSvc *TokenService
	guestSvc *GuestService
}

const AUTH_SVC = "auth_svc"

var ErrInvalidCredentials = errors.New("invalid email or password")

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.tokenSvc = svc.Service(TOKEN_SVC).(*TokenService)
	svc.guestSvc = svc.Service(GUEST_SVC).(*GuestService)
	return nil
}

// ==================== ACCOUNT LIFECYCLE ====================

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	if _, err := svc.sqlSvc.GetUserByEmail(email); err == nil {
		return nil, shared.NewConflictError(errors.New("email already registered"), "Email already registered")
	}
	if _, err := svc.sqlSvc.GetUserByUsername(username); err == nil {
		return nil, shared.NewConflictError(errors.New("username already taken"), "Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	user := &model.User{
		Email:    email,
		Username: username,
		Password: string(hash),
		Role:     shared.RoleStudent,
		IsActive: true,
	}

	// The unique constraints on email and username still back this up
	// if a concurrent registration slips past the pre-checks.
	user, err = svc.sqlSvc.CreateUser(user)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")

	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "Registration successful.",
	}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	user, err := svc.sqlSvc.GetUserByEmail(email)
	if err != nil {
		return nil, shared.NewUnauthorizedError(ErrInvalidCredentials, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(ErrInvalidCredentials, "Invalid email or password")
	}

	if !user.IsActive {
		return nil, shared.NewForbiddenError(errors.New("account deactivated"), "Account is deactivated")
	}

	user.LastLogin = time.Now()
	if err := svc.sqlSvc.UpdateUserLastLogin(user.ID, user.LastLogin); err != nil {
		log.Printf("Failed to stamp last login for %s: %v", user.ID, err)
	}

	accessToken, err := svc.tokenSvc.IssueRegisteredToken(user.ID, user.Email)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	return &dto.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(RegisteredTokenDuration.Seconds()),
		User:        userInfo(user),
	}, nil
}

func (svc *AuthService) Me(identity shared.Identity) (*dto.MeResponse, error) {
	if identity.IsGuest() {
		session, err := svc.guestSvc.GetSessionInfo(identity.ID)
		if err != nil {
			return nil, err
		}
		return &dto.MeResponse{Kind: shared.KindGuest, Session: session}, nil
	}

	user, err := svc.sqlSvc.GetUser(identity.ID)
	if err != nil {
		return nil, err
	}

	info := userInfo(user)
	return &dto.MeResponse{Kind: shared.KindRegistered, User: &info}, nil
}

// ==================== MIDDLEWARES ====================

// RequiredAuth verifies the bearer token and stores the resulting
// Identity in locals. Guest identities are re-validated against the
// session registry so deactivated or lazily expired sessions fail even
// while the token itself is still within its TTL.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := svc.identityFromRequest(c)
		if err != nil {
			return err
		}

		c.Locals(shared.IdentityKey, *identity)
		c.Locals(shared.UserID, identity.ID)
		return c.Next()
	}
}

// RequiredRegisteredAuth additionally rejects guest identities.
func (svc *AuthService) RequiredRegisteredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := svc.identityFromRequest(c)
		if err != nil {
			return err
		}

		if identity.IsGuest() {
			return shared.NewForbiddenError(errors.New("registered account required"), "Registered account required")
		}

		c.Locals(shared.IdentityKey, *identity)
		c.Locals(shared.UserID, identity.ID)
		return c.Next()
	}
}

// OptionalAuth attaches an Identity when a valid token is present and
// never aborts the request.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := svc.identityFromRequest(c)
		if err == nil {
			c.Locals(shared.IdentityKey, *identity)
			c.Locals(shared.UserID, identity.ID)
		}
		return c.Next()
	}
}

func (svc *AuthService) identityFromRequest(c *fiber.Ctx) (*shared.Identity, error) {
	token, err := svc.tokenSvc.ExtractTokenFromHeader(c.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	identity, err := svc.tokenSvc.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	if identity.IsGuest() {
		if _, err := svc.guestSvc.ValidateSession(identity.ID); err != nil {
			return nil, err
		}
	}

	return identity, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userInfo(user *model.User) dto.UserInfo {
	info := dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
	if !user.LastLogin.IsZero() {
		lastLogin := user.LastLogin
		info.LastLogin = &lastLogin
	}
	return info
}
