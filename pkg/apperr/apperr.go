package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure classes the API distinguishes.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrValidation         = errors.New("validation failed")
	ErrInternal           = errors.New("internal error")
)

// Violation describes a single field-level validation failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is a structured application error carrying the HTTP status it maps
// to and, for validation failures, the list of field violations.
type Error struct {
	Message    string
	Status     int
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conflict reports a duplicate-email registration attempt.
func Conflict(email string) *Error {
	return &Error{
		Message: fmt.Sprintf("User with email %s already exists", email),
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InvalidCredentials reports a failed login attempt. The message does not
// reveal whether the email or the password was wrong.
func InvalidCredentials() *Error {
	return &Error{
		Message: "Wrong credentials provided",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredentials,
	}
}

// SessionExpired reports a rejected token refresh.
func SessionExpired() *Error {
	return &Error{
		Message: "Refresh token expired - session ended.",
		Status:  http.StatusUnauthorized,
		Err:     ErrSessionExpired,
	}
}

// Unauthenticated reports a missing or invalid auth token on a protected
// operation.
func Unauthenticated() *Error {
	return &Error{
		Message: "Not authenticated",
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthenticated,
	}
}

// Validation reports field-level input violations.
func Validation(violations []Violation) *Error {
	return &Error{
		Message:    "Bad request",
		Status:     http.StatusBadRequest,
		Violations: violations,
		Err:        ErrValidation,
	}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *Error {
	return &Error{
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Internal wraps an unexpected failure without leaking its details to the
// caller.
func Internal(err error) *Error {
	return &Error{
		Message: "Something went wrong!",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Status returns the HTTP status code an error maps to.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
