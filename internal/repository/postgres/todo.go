package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

// TodoRepository implements repository.TodoRepository using PostgreSQL.
type TodoRepository struct {
	db DB
}

// NewTodoRepository creates a PostgreSQL-backed to-do repository.
func NewTodoRepository(db DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a new to-do.
func (r *TodoRepository) Create(ctx context.Context, t *domain.Todo) error {
	query := `
		INSERT INTO todos (id, title, completed, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Completed,
		t.CreatedBy,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}

	return nil
}

// GetByID retrieves a to-do owned by ownerID.
func (r *TodoRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	query := `
		SELECT id, title, completed, created_by, created_at, updated_at
		FROM todos
		WHERE id = $1 AND created_by = $2`

	var t domain.Todo
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&t.ID,
		&t.Title,
		&t.Completed,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	return &t, nil
}

// ListByOwner returns up to limit to-dos owned by ownerID, newest first.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Todo, error) {
	query := `
		SELECT id, title, completed, created_by, created_at, updated_at
		FROM todos
		WHERE created_by = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Completed,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan todo row: %w", err)
		}
		todos = append(todos, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo rows: %w", err)
	}

	if todos == nil {
		todos = []domain.Todo{}
	}

	return todos, nil
}

// Update writes the title and completion flag of an existing to-do, scoped
// to its owner.
func (r *TodoRepository) Update(ctx context.Context, t *domain.Todo) error {
	t.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE todos
		SET title = $1, completed = $2, updated_at = $3
		WHERE id = $4 AND created_by = $5`

	ct, err := r.db.Exec(ctx, query,
		t.Title,
		t.Completed,
		t.UpdatedAt,
		t.ID,
		t.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperr.NotFound("todo", t.ID)
	}

	return nil
}

// Delete removes a to-do owned by ownerID.
func (r *TodoRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM todos WHERE id = $1 AND created_by = $2`

	ct, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperr.NotFound("todo", id)
	}

	return nil
}
