package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"

	"github.com/martin-trajanovski/go-graphql-todos/internal/api"
	"github.com/martin-trajanovski/go-graphql-todos/internal/config"
	"github.com/martin-trajanovski/go-graphql-todos/internal/repository/postgres"
	"github.com/martin-trajanovski/go-graphql-todos/internal/repository/redis"
	"github.com/martin-trajanovski/go-graphql-todos/internal/service"
	"github.com/martin-trajanovski/go-graphql-todos/internal/token"
	"github.com/martin-trajanovski/go-graphql-todos/migrations"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/database"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/health"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/middleware"
)

const serviceName = "todos-api"

// App wires together all dependencies and runs the service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	redis      *redisclient.Client
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// PostgreSQL is mandatory; Redis is the advisory session cache and an
// unreachable server does not prevent startup.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pgCfg.MaxConns = 25
	pgCfg.MinConns = 5
	pgCfg.MaxConnLifetime = time.Hour
	pgCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, serviceName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Initialize the Redis session cache. Degraded when unreachable.
	redisClient := database.NewRedisClient(ctx, cfg.Redis(), logger)

	// Build the dependency graph.
	userRepo := postgres.NewUserRepository(pool)
	todoRepo := postgres.NewTodoRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	sessions := redis.NewSessionCache(redisClient, cfg.RefreshTokenTTL, cfg.AuthTokenTTL)

	tokens := token.NewManager(cfg.JWTSecret, cfg.RefreshTokenSecret, cfg.AuthTokenTTL, cfg.RefreshTokenTTL)

	authService := service.NewAuthService(userRepo, activityRepo, sessions, tokens, cfg.BcryptCost, logger)
	todoService := service.NewTodoService(todoRepo, logger)

	// Health checks. The session cache only degrades readiness.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	apiHandler := api.NewHandler(authService, todoService, tokens, sessions, logger)
	router := api.NewRouter(apiHandler, healthHandler, middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}, middleware.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		redis:      redisClient,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
