package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/models"
)

// Actor is the resolved identity and role on whose behalf an operation runs.
// It is the only identity input the service layer accepts.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role models.Role
}

// SessionClaims are the JWT claims carried by a session token. The web layer
// owns how the token travels (cookie, header); this package only signs and
// verifies it.
type SessionClaims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// GenerateSessionToken creates a signed token for the authenticated actor
func (tm *TokenManager) GenerateSessionToken(actor Actor) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		UserID: actor.ID.String(),
		Name:   actor.Name,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry and returns the actor
func (tm *TokenManager) ValidateToken(tokenString string) (Actor, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return Actor{}, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return Actor{}, models.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid actor id in token: %w", err)
	}

	role := models.Role(claims.Role)
	if !models.ValidRole(role) {
		return Actor{}, models.ErrUnauthorized
	}

	return Actor{ID: userID, Name: claims.Name, Role: role}, nil
}
