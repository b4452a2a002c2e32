package api

import (
	"context"
	"encoding/json"

	"github.com/martin-trajanovski/go-graphql-todos/internal/service"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/validate"
)

type listTodosVars struct {
	Limit int `json:"limit"`
}

func (h *Handler) listTodos(ctx context.Context, viewer Viewer, vars json.RawMessage) (any, error) {
	var in listTodosVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}

	return h.todos.GetAll(ctx, in.Limit, viewer.UserID)
}

type createTodoVars struct {
	TodoInput createTodoInput `json:"todoInput" validate:"required"`
}

type createTodoInput struct {
	Title     string `json:"title" validate:"required"`
	Completed bool   `json:"completed"`
}

func (h *Handler) createTodo(ctx context.Context, viewer Viewer, vars json.RawMessage) (any, error) {
	var in createTodoVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	return h.todos.Create(ctx, service.CreateInput{
		Title:     in.TodoInput.Title,
		Completed: in.TodoInput.Completed,
	}, viewer.UserID)
}

type updateTodoVars struct {
	TodoUpdateInput updateTodoInput `json:"todoUpdateInput" validate:"required"`
}

type updateTodoInput struct {
	ID        string  `json:"_id" validate:"required,len=24,hexadecimal"`
	Title     *string `json:"title" validate:"omitempty,min=1"`
	Completed *bool   `json:"completed"`
}

func (h *Handler) updateTodo(ctx context.Context, viewer Viewer, vars json.RawMessage) (any, error) {
	var in updateTodoVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	return h.todos.Update(ctx, service.UpdateInput{
		ID:        in.TodoUpdateInput.ID,
		Title:     in.TodoUpdateInput.Title,
		Completed: in.TodoUpdateInput.Completed,
	}, viewer.UserID)
}
