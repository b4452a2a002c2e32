package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

const (
	sessionPrefix   = "session:"
	blacklistPrefix = "blacklist:"

	livenessTimeout = 500 * time.Millisecond
)

// SessionCache implements repository.SessionCache over Redis. The cache is
// advisory: when the server is unreachable every caller degrades instead of
// failing the request, so each operation is preceded by a liveness probe on
// the caller's side via Live.
type SessionCache struct {
	client       *redis.Client
	sessionTTL   time.Duration
	blacklistTTL time.Duration
}

// NewSessionCache creates a Redis-backed session cache. sessionTTL bounds
// refresh-token tracking entries; blacklistTTL bounds revocation marks and
// should equal the auth token lifetime.
func NewSessionCache(client *redis.Client, sessionTTL, blacklistTTL time.Duration) *SessionCache {
	return &SessionCache{
		client:       client,
		sessionTTL:   sessionTTL,
		blacklistTTL: blacklistTTL,
	}
}

// Live reports whether the cache answers a ping within a short deadline.
// A nil client (cache not configured) is never live.
func (c *SessionCache) Live(ctx context.Context) bool {
	if c.client == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, livenessTimeout)
	defer cancel()

	return c.client.Ping(pingCtx).Err() == nil
}

// SaveSession maps a refresh token to the auth token minted alongside it.
func (c *SessionCache) SaveSession(ctx context.Context, refreshToken, authToken string) error {
	key := sessionPrefix + refreshToken

	if err := c.client.Set(ctx, key, authToken, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// AuthTokenFor returns the auth token associated with a refresh token.
func (c *SessionCache) AuthTokenFor(ctx context.Context, refreshToken string) (string, error) {
	key := sessionPrefix + refreshToken

	authToken, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}

	return authToken, nil
}

// DeleteSession removes the refresh token entry.
func (c *SessionCache) DeleteSession(ctx context.Context, refreshToken string) error {
	if err := c.client.Del(ctx, sessionPrefix+refreshToken).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}

// Blacklist marks an auth token as revoked. The mark expires once the token
// itself would have, so the blacklist never outlives the tokens it covers.
func (c *SessionCache) Blacklist(ctx context.Context, authToken string) error {
	key := blacklistPrefix + authToken

	if err := c.client.Set(ctx, key, "blacklisted", c.blacklistTTL).Err(); err != nil {
		return fmt.Errorf("redis set blacklist: %w", err)
	}

	return nil
}

// IsBlacklisted reports whether an auth token has been revoked early.
func (c *SessionCache) IsBlacklisted(ctx context.Context, authToken string) (bool, error) {
	n, err := c.client.Exists(ctx, blacklistPrefix+authToken).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists blacklist: %w", err)
	}

	return n > 0, nil
}
