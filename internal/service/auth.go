package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
	"github.com/martin-trajanovski/go-graphql-todos/internal/repository"
	"github.com/martin-trajanovski/go-graphql-todos/internal/token"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

// AuthService implements registration, login, logout, and token refresh.
type AuthService struct {
	users      repository.UserRepository
	activities repository.ActivityRepository
	sessions   repository.SessionCache
	tokens     *token.Manager
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(
	users repository.UserRepository,
	activities repository.ActivityRepository,
	sessions repository.SessionCache,
	tokens *token.Manager,
	bcryptCost int,
	logger *slog.Logger,
) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		activities: activities,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user with a bcrypt-hashed password. Email
// uniqueness is enforced by the store's constraint, so two concurrent
// registrations with the same address cannot both succeed; the loser
// receives a conflict error. The returned user carries no password material.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hashed),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies the credentials and mints an auth token and a refresh
// token. Both an unknown email and a wrong password yield the same invalid
// credentials error. One activity record is written per successful login;
// failed attempts leave no trace.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthData, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidCredentials()
	}

	auth, err := s.tokens.MintAuthToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.MintRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}
	auth.RefreshToken = refreshToken

	// The cache is advisory; a dead cache must not fail the login.
	if s.sessions.Live(ctx) {
		if err := s.sessions.SaveSession(ctx, refreshToken, auth.Token); err != nil {
			s.logger.WarnContext(ctx, "failed to track session in cache",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.recordActivity(ctx, user.ID, domain.ActivityLogin)

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &auth, nil
}

// Logout revokes the session associated with a refresh token. It is
// best-effort and advisory: when the session cache is unreachable there is
// nothing to revoke against, and the call still succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if !s.sessions.Live(ctx) {
		return nil
	}

	authToken, err := s.sessions.AuthTokenFor(ctx, refreshToken)
	if err != nil {
		return nil
	}

	if err := s.sessions.Blacklist(ctx, authToken); err != nil {
		s.logger.WarnContext(ctx, "failed to blacklist auth token",
			slog.String("error", err.Error()),
		)
	}

	if err := s.sessions.DeleteSession(ctx, refreshToken); err != nil {
		s.logger.WarnContext(ctx, "failed to delete session entry",
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Refresh mints a new auth token for a valid refresh token. With the cache
// live, an unknown refresh token means the session ended. With the cache
// down the flow degrades rather than failing open: the token's signature
// must verify AND it must match the refresh token stored on the user
// record. A token that fails verification forces a logout.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthData, error) {
	live := s.sessions.Live(ctx)
	if live {
		if _, err := s.sessions.AuthTokenFor(ctx, refreshToken); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.SessionExpired()
			}
			// Cache answered the ping but failed the read; treat it as down.
			live = false
		}
	}

	if !live {
		s.logger.WarnContext(ctx, "session cache unreachable, refreshing against stored token only")
	}

	if err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		_ = s.Logout(ctx, refreshToken)
		return nil, apperr.SessionExpired()
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.SessionExpired()
		}
		return nil, err
	}

	auth, err := s.tokens.MintAuthToken(user.ID)
	if err != nil {
		return nil, err
	}

	if live {
		if err := s.sessions.SaveSession(ctx, refreshToken, auth.Token); err != nil {
			s.logger.WarnContext(ctx, "failed to track refreshed session",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return &auth, nil
}

// recordActivity appends a login-activity entry. Failure to record is
// logged but does not fail the authentication that triggered it.
func (s *AuthService) recordActivity(ctx context.Context, userID, activityType string) {
	activity := &domain.LoginActivity{
		ID:           uuid.New().String(),
		UserID:       userID,
		ActivityType: activityType,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.activities.Record(ctx, activity); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login activity",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
