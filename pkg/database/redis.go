package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewRedisClient creates a Redis client. The session cache is optional
// infrastructure: an unreachable server is logged but does not fail startup,
// and the client is returned so the connection can recover later.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		if logger != nil {
			logger.Warn("redis unreachable, session cache degraded",
				slog.String("addr", cfg.Addr()),
				slog.String("error", err.Error()),
			)
		}
		return client
	}

	if logger != nil {
		logger.Info("connected to redis", slog.String("addr", cfg.Addr()))
	}

	return client
}
