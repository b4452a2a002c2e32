package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martin-trajanovski/go-graphql-todos/pkg/apperr"
)

// envelope is the uniform {data, error} wrapper every operation returns.
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

// errorBody carries a business failure inside the envelope. Errors lists
// field-level validation violations when present.
type errorBody struct {
	Message    string             `json:"message"`
	StatusCode int                `json:"statusCode"`
	Errors     []apperr.Violation `json:"errors,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(env)
}

// failure maps an error to its envelope form. Unexpected errors are masked
// behind a generic internal message.
func failure(err error) envelope {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return envelope{Error: &errorBody{
			Message:    appErr.Message,
			StatusCode: appErr.Status,
			Errors:     appErr.Violations,
		}}
	}

	status := apperr.Status(err)
	message := "Something went wrong!"
	if status != http.StatusInternalServerError {
		message = err.Error()
	}

	return envelope{Error: &errorBody{Message: message, StatusCode: status}}
}
