// Package apperr defines the error taxonomy shared by the stores, services,
// and HTTP handlers, and maps it onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed client input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks missing, invalid, or revoked credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a missing resource or one the caller does not own.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a duplicate value in a unique field.
	ErrConflict = errors.New("conflict")

	// ErrInvalidToken is returned when a bearer token fails verification
	// or names a user that does not exist.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	// ErrRevokedToken is returned when a well-formed token is no longer
	// in its owner's token list.
	ErrRevokedToken = fmt.Errorf("%w: token revoked", ErrUnauthorized)
	// ErrInvalidCredentials is returned for any email/password mismatch.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

// ValidationError describes which input field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validation builds a *ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// HTTPStatus maps err onto the status code the HTTP surface responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
