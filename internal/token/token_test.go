package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAuthSecret    = "auth-secret-for-tests-0123456789ab"
	testRefreshSecret = "refresh-secret-for-tests-0123456789"
)

func newTestManager() *Manager {
	return NewManager(testAuthSecret, testRefreshSecret, time.Hour, 60*time.Hour)
}

func TestMintAuthToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	auth, err := m.MintAuthToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)

	userID, err := m.VerifyAuthToken(auth.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestMintAuthToken_ExpiryWithinLifetime(t *testing.T) {
	m := newTestManager()
	before := time.Now().UTC()

	auth, err := m.MintAuthToken("user-1")
	require.NoError(t, err)

	after := time.Now().UTC()
	expiresAt := time.UnixMilli(auth.ExpiresAt)

	assert.False(t, expiresAt.Before(before.Add(time.Hour).Truncate(time.Second)))
	assert.False(t, expiresAt.After(after.Add(time.Hour)))
}

func TestVerifyAuthToken_RejectsTampering(t *testing.T) {
	m := newTestManager()

	auth, err := m.MintAuthToken("user-1")
	require.NoError(t, err)

	tampered := auth.Token[:len(auth.Token)-2] + "xx"
	_, err = m.VerifyAuthToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAuthToken_RejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewManager("a-completely-different-secret-000", testRefreshSecret, time.Hour, 60*time.Hour)

	auth, err := other.MintAuthToken("user-1")
	require.NoError(t, err)

	_, err = m.VerifyAuthToken(auth.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAuthToken_RejectsExpired(t *testing.T) {
	m := NewManager(testAuthSecret, testRefreshSecret, -time.Minute, 60*time.Hour)

	auth, err := m.MintAuthToken("user-1")
	require.NoError(t, err)

	_, err = m.VerifyAuthToken(auth.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAuthToken_RejectsRefreshToken(t *testing.T) {
	m := newTestManager()

	refresh, err := m.MintRefreshToken()
	require.NoError(t, err)

	// Signed with the refresh secret; must not pass auth verification.
	_, err = m.VerifyAuthToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRefreshToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	refresh, err := m.MintRefreshToken()
	require.NoError(t, err)

	assert.NoError(t, m.VerifyRefreshToken(refresh))
}

func TestVerifyRefreshToken_RejectsExpired(t *testing.T) {
	m := NewManager(testAuthSecret, testRefreshSecret, time.Hour, -time.Minute)

	refresh, err := m.MintRefreshToken()
	require.NoError(t, err)

	assert.ErrorIs(t, m.VerifyRefreshToken(refresh), ErrInvalidToken)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := newTestManager()

	_, err := m.VerifyAuthToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, m.VerifyRefreshToken(""), ErrInvalidToken)
}
