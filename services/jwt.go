package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alphabatem/common/context"
	"github.com/questlab-edu/questlab_api/shared"
)

type TokenService struct {
	context.DefaultService

	jwtSecretKey string
}

type IdentityClaims struct {
	UserID    string `json:"user_id,omitempty"`
	GuestID   string `json:"guest_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

const TOKEN_SVC = "token_svc"

const (
	RegisteredTokenDuration = 24 * time.Hour
	GuestTokenDuration      = time.Hour

	tokenIssuer = "QuestLab"
)

var (
	ErrTokenMissing = errors.New("authorization token is missing")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

func (svc TokenService) Id() string {
	return TOKEN_SVC
}

func (svc *TokenService) Configure(ctx *context.Context) error {
	svc.jwtSecretKey = os.Getenv("JWT_SECRET")
	if svc.jwtSecretKey == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *TokenService) Start() error {
	return nil
}

func (svc *TokenService) IssueRegisteredToken(userID, email string) (string, error) {
	claims := &IdentityClaims{
		UserID: userID,
		Email:  email,
		Kind:   shared.KindRegistered,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(RegisteredTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	return svc.sign(claims)
}

func (svc *TokenService) IssueGuestToken(guestID, sessionID, username string) (string, error) {
	claims := &IdentityClaims{
		GuestID:   guestID,
		SessionID: sessionID,
		Username:  username,
		Kind:      shared.KindGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(GuestTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	return svc.sign(claims)
}

func (svc *TokenService) sign(claims *IdentityClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

// VerifyToken checks signature and expiry and normalizes the claim set
// into an Identity. Tokens without an explicit kind claim are rejected
// rather than being treated as registered.
func (svc *TokenService) VerifyToken(jwtToken string) (*shared.Identity, error) {
	if jwtToken == "" {
		return nil, shared.NewUnauthorizedError(ErrTokenMissing, "Authorization token required")
	}

	token, err := jwt.ParseWithClaims(jwtToken, &IdentityClaims{}, svc.getJWTKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.NewUnauthorizedError(ErrTokenExpired, "Token expired")
		}
		return nil, shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid token")
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid token")
	}

	switch claims.Kind {
	case shared.KindRegistered:
		if claims.UserID == "" {
			return nil, shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid token")
		}
	case shared.KindGuest:
		if claims.GuestID == "" || claims.SessionID == "" {
			return nil, shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid token")
		}
	default:
		return nil, shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid token")
	}

	subjectID := claims.UserID
	if subjectID == "" {
		subjectID = claims.GuestID
	}

	return &shared.Identity{
		ID:        subjectID,
		Kind:      claims.Kind,
		SessionID: claims.SessionID,
		Email:     claims.Email,
		Username:  claims.Username,
	}, nil
}

func (svc *TokenService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *TokenService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", shared.NewUnauthorizedError(ErrTokenMissing, "Authorization header is missing")
	}

	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", shared.NewUnauthorizedError(ErrTokenInvalid, "Invalid authorization header format")
	}

	return authHeader[7:], nil
}
