package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/martin-trajanovski/go-graphql-todos/internal/repository"
	"github.com/martin-trajanovski/go-graphql-todos/internal/service"
	"github.com/martin-trajanovski/go-graphql-todos/internal/token"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
	"github.com/martin-trajanovski/go-graphql-todos/pkg/logger"
)

// request is the wire form of an operation call: a named query or mutation
// plus its variables.
type request struct {
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables"`
}

// resolver executes one named operation. For protected operations the
// viewer is guaranteed to be authenticated.
type resolver func(ctx context.Context, viewer Viewer, vars json.RawMessage) (any, error)

type operation struct {
	resolve   resolver
	protected bool
}

// Handler dispatches named operations to the auth and todo services and
// wraps every result in the {data, error} envelope.
type Handler struct {
	auth     *service.AuthService
	todos    *service.TodoService
	tokens   *token.Manager
	sessions repository.SessionCache
	logger   *slog.Logger

	ops map[string]operation
}

// NewHandler creates the operation dispatcher.
func NewHandler(
	auth *service.AuthService,
	todos *service.TodoService,
	tokens *token.Manager,
	sessions repository.SessionCache,
	log *slog.Logger,
) *Handler {
	h := &Handler{
		auth:     auth,
		todos:    todos,
		tokens:   tokens,
		sessions: sessions,
		logger:   log,
	}

	h.ops = map[string]operation{
		// Queries.
		"login": {resolve: h.login},
		"todos": {resolve: h.listTodos, protected: true},

		// Mutations.
		"register":     {resolve: h.register},
		"createTodo":   {resolve: h.createTodo, protected: true},
		"updateTodo":   {resolve: h.updateTodo, protected: true},
		"refreshToken": {resolve: h.refreshToken},
		"logout":       {resolve: h.logout},
	}

	return h
}

// Dispatch handles POST /api. Business failures ride inside the envelope
// with a 200 transport status; only an unreadable request or an unknown
// operation produces a transport-level 400.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, envelope{Error: &errorBody{
			Message:    "invalid request body: " + err.Error(),
			StatusCode: http.StatusBadRequest,
		}})
		return
	}

	op, ok := h.ops[req.OperationName]
	if !ok {
		writeEnvelope(w, http.StatusBadRequest, envelope{Error: &errorBody{
			Message:    "unknown operation: " + req.OperationName,
			StatusCode: http.StatusBadRequest,
		}})
		return
	}

	var viewer Viewer
	if op.protected {
		v, err := h.authenticate(r)
		if err != nil {
			writeEnvelope(w, http.StatusOK, failure(err))
			return
		}
		viewer = v
	}

	data, err := op.resolve(r.Context(), viewer, req.Variables)
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).ErrorContext(r.Context(), "operation failed",
				slog.String("operation", req.OperationName),
				slog.String("error", err.Error()),
			)
		}
		writeEnvelope(w, http.StatusOK, failure(err))
		return
	}

	writeEnvelope(w, http.StatusOK, envelope{Data: data})
}

// decodeVars unmarshals operation variables, tolerating an absent object.
func decodeVars(vars json.RawMessage, dst any) error {
	if len(vars) == 0 {
		return nil
	}
	return json.Unmarshal(vars, dst)
}
