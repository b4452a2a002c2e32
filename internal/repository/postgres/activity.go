package postgres

import (
	"context"
	"fmt"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
)

// ActivityRepository implements repository.ActivityRepository using
// PostgreSQL. Records are append-only; there is no update or delete.
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a PostgreSQL-backed activity repository.
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Record appends a login-activity entry.
func (r *ActivityRepository) Record(ctx context.Context, a *domain.LoginActivity) error {
	query := `
		INSERT INTO login_activities (id, user_id, activity_type, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, a.ID, a.UserID, a.ActivityType, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert login activity: %w", err)
	}

	return nil
}
