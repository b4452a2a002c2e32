package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/martin-trajanovski/go-graphql-todos/pkg/database"
)

// Config holds all configuration for the service. Settings marked required
// have no safe default; when one is missing the process must not start.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	Port int `env:"PORT,required"`

	// PostgreSQL (credential store)
	PostgresHost string `env:"POSTGRES_HOST,required,notEmpty"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER,required,notEmpty"`
	PostgresPass string `env:"POSTGRES_PASSWORD,required,notEmpty"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"todos"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (session cache, optional at runtime but the host must be configured)
	RedisHost     string `env:"REDIS_HOST,required,notEmpty"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Token signing
	JWTSecret          string        `env:"JWT_SECRET,required,notEmpty"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	AuthTokenTTL       time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"60h"`

	// Password hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Per-client rate limiting on the operation endpoint
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables. Any missing required
// setting aborts startup.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.Environment != "development" {
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
		if len(cfg.RefreshTokenSecret) < 32 {
			return nil, fmt.Errorf("REFRESH_TOKEN_SECRET must be at least 32 characters long, got %d", len(cfg.RefreshTokenSecret))
		}
	}

	return cfg, nil
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
	}
}

// Redis returns the session cache configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
	}
}
