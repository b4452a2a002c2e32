package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
)

// ErrInvalidToken is returned when a token fails verification for any
// reason: bad signature, expiry, or malformed claims. Verification fails
// closed; callers must treat it as a hard rejection.
var ErrInvalidToken = errors.New("invalid token")

// authClaims is the payload of a short-lived auth token.
type authClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// refreshClaims is the payload of a refresh token. It carries no identity;
// the token is matched against the user record that stores it.
type refreshClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Manager mints and verifies HMAC-signed tokens. Auth tokens and refresh
// tokens are signed with separate secrets.
type Manager struct {
	authSecret    []byte
	refreshSecret []byte
	authTTL       time.Duration
	refreshTTL    time.Duration
}

// NewManager creates a token manager.
func NewManager(authSecret, refreshSecret string, authTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		authSecret:    []byte(authSecret),
		refreshSecret: []byte(refreshSecret),
		authTTL:       authTTL,
		refreshTTL:    refreshTTL,
	}
}

// AuthTokenTTL returns the configured auth token lifetime.
func (m *Manager) AuthTokenTTL() time.Duration {
	return m.authTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (m *Manager) RefreshTokenTTL() time.Duration {
	return m.refreshTTL
}

// MintAuthToken signs a short-lived token identifying the user. ExpiresAt in
// the returned AuthData is a unix-millisecond timestamp matching the token's
// exp claim.
func (m *Manager) MintAuthToken(userID string) (domain.AuthData, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.authTTL)

	claims := &authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.authSecret)
	if err != nil {
		return domain.AuthData{}, fmt.Errorf("sign auth token: %w", err)
	}

	return domain.AuthData{
		Token:     signed,
		ExpiresAt: expiresAt.UnixMilli(),
	}, nil
}

// MintRefreshToken signs a longer-lived refresh token.
func (m *Manager) MintRefreshToken() (string, error) {
	now := time.Now().UTC()

	claims := &refreshClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// VerifyAuthToken validates an auth token and returns the user ID it
// identifies.
func (m *Manager) VerifyAuthToken(tokenString string) (string, error) {
	claims := &authClaims{}
	if err := m.verify(tokenString, claims, m.authSecret); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// VerifyRefreshToken validates a refresh token's signature and expiry.
func (m *Manager) VerifyRefreshToken(tokenString string) error {
	return m.verify(tokenString, &refreshClaims{}, m.refreshSecret)
}

func (m *Manager) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
