package repository

import (
	"context"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
)

// UserRepository defines persistence operations for user records.
type UserRepository interface {
	// Create inserts a new user. A duplicate email fails with a conflict
	// error; uniqueness is enforced by the store, not by a pre-check.
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID retrieves a user by identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByRefreshToken retrieves the user currently holding the given
	// refresh token.
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.User, error)

	// UpdateRefreshToken rotates the refresh token stored on the user record.
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// TodoRepository defines persistence operations for to-do records. Every
// read and write is scoped to the owning user.
type TodoRepository interface {
	// Create inserts a new to-do.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a to-do owned by ownerID.
	GetByID(ctx context.Context, id, ownerID string) (*domain.Todo, error)

	// ListByOwner returns up to limit to-dos owned by ownerID.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Todo, error)

	// Update writes the title and completion flag of an existing to-do,
	// scoped to its owner.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete removes a to-do owned by ownerID.
	Delete(ctx context.Context, id, ownerID string) error
}

// ActivityRepository records append-only authentication activity.
type ActivityRepository interface {
	// Record appends a login-activity entry. Entries are never mutated or
	// deleted.
	Record(ctx context.Context, activity *domain.LoginActivity) error
}

// SessionCache tracks issued tokens in an optional key-value store. The
// cache is best-effort: implementations must degrade rather than fail when
// the store is unreachable, and callers must consult Live before trusting
// a miss.
type SessionCache interface {
	// Live reports whether the cache is currently reachable.
	Live(ctx context.Context) bool

	// SaveSession maps a refresh token to the auth token minted with it.
	SaveSession(ctx context.Context, refreshToken, authToken string) error

	// AuthTokenFor returns the auth token associated with a refresh token.
	AuthTokenFor(ctx context.Context, refreshToken string) (string, error)

	// DeleteSession removes the refresh token entry.
	DeleteSession(ctx context.Context, refreshToken string) error

	// Blacklist marks an auth token as revoked until it would have expired.
	Blacklist(ctx context.Context, authToken string) error

	// IsBlacklisted reports whether an auth token has been revoked early.
	IsBlacklisted(ctx context.Context, authToken string) (bool, error)
}
