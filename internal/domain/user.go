package domain

import (
	"time"
)

// User is a registered account. The password hash and refresh token never
// leave the server.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AuthData is the credential material returned by login and refresh.
// ExpiresAt is a unix timestamp in milliseconds.
type AuthData struct {
	Token        string `json:"token"`
	ExpiresAt    int64  `json:"expiresAt"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Login activity types.
const (
	ActivityLogin = "login"
)

// LoginActivity is an append-only record of an authentication event.
type LoginActivity struct {
	ID           string    `json:"_id"`
	UserID       string    `json:"userID"`
	ActivityType string    `json:"activityType"`
	CreatedAt    time.Time `json:"createdAt"`
}
