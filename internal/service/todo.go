package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/martin-trajanovski/go-graphql-todos/internal/domain"
	"github.com/martin-trajanovski/go-graphql-todos/internal/repository"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

// defaultTodoLimit caps a list request that does not specify a limit.
const defaultTodoLimit = 10

// TodoService implements owner-scoped to-do operations.
type TodoService struct {
	todos  repository.TodoRepository
	logger *slog.Logger
}

// NewTodoService creates a to-do service.
func NewTodoService(todos repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{todos: todos, logger: logger}
}

// GetAll returns up to limit to-dos owned by userID. A non-positive limit
// falls back to the default of 10. Items owned by other users are never
// returned regardless of limit.
func (s *TodoService) GetAll(ctx context.Context, limit int, userID string) ([]domain.Todo, error) {
	if limit <= 0 {
		limit = defaultTodoLimit
	}

	return s.todos.ListByOwner(ctx, userID, limit)
}

// CreateInput holds the parameters for creating a to-do.
type CreateInput struct {
	Title     string
	Completed bool
}

// Create persists a new to-do owned by userID.
func (s *TodoService) Create(ctx context.Context, input CreateInput, userID string) (*domain.Todo, error) {
	if input.Title == "" {
		return nil, apperr.Validation([]apperr.Violation{
			{Path: "title", Message: "is required"},
		})
	}

	now := time.Now().UTC()
	todo := &domain.Todo{
		ID:        domain.NewTodoID(),
		Title:     input.Title,
		Completed: input.Completed,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "todo created",
		slog.String("todo_id", todo.ID),
		slog.String("user_id", userID),
	)

	return todo, nil
}

// UpdateInput holds the parameters for a partial to-do update. Nil fields
// are left unchanged.
type UpdateInput struct {
	ID        string
	Title     *string
	Completed *bool
}

// Update applies a partial update to a to-do owned by userID. A to-do owned
// by someone else is indistinguishable from a missing one.
func (s *TodoService) Update(ctx context.Context, input UpdateInput, userID string) (*domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, input.ID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("todo", input.ID)
		}
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperr.Validation([]apperr.Violation{
				{Path: "title", Message: "must be at least 1 characters"},
			})
		}
		todo.Title = *input.Title
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, err
	}

	return todo, nil
}

// Remove deletes a to-do owned by userID. Deletion is a service-level
// capability only; the API surface does not expose it.
func (s *TodoService) Remove(ctx context.Context, id, userID string) error {
	return s.todos.Delete(ctx, id, userID)
}
