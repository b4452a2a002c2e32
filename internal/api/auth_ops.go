package api

import (
	"context"
	"encoding/json"

	"github.com/martin-trajanovski/go-graphql-todos/internal/service"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/validate"
)

type loginVars struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(ctx context.Context, _ Viewer, vars json.RawMessage) (any, error) {
	var in loginVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	return h.auth.Login(ctx, in.Email, in.Password)
}

type registerVars struct {
	UserInput registerInput `json:"userInput" validate:"required"`
}

type registerInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

func (h *Handler) register(ctx context.Context, _ Viewer, vars json.RawMessage) (any, error) {
	var in registerVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	return h.auth.Register(ctx, service.RegisterInput{
		Email:     in.UserInput.Email,
		Password:  in.UserInput.Password,
		FirstName: in.UserInput.FirstName,
		LastName:  in.UserInput.LastName,
	})
}

type refreshVars struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *Handler) refreshToken(ctx context.Context, _ Viewer, vars json.RawMessage) (any, error) {
	var in refreshVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	return h.auth.Refresh(ctx, in.RefreshToken)
}

func (h *Handler) logout(ctx context.Context, _ Viewer, vars json.RawMessage) (any, error) {
	var in refreshVars
	if err := decodeVars(vars, &in); err != nil {
		return nil, apperr.Validation([]apperr.Violation{{Message: "variables must be an object"}})
	}
	if violations := validate.Input(in); violations != nil {
		return nil, apperr.Validation(violations)
	}

	if err := h.auth.Logout(ctx, in.RefreshToken); err != nil {
		return nil, err
	}

	return true, nil
}
