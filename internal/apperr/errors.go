// Package apperr maps the service error taxonomy onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

var (
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrFileNotFound is returned when a dataset file does not exist.
	ErrFileNotFound = errors.New("data file not found")
	// ErrDuplicate is returned by writes that hit a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

func NotFound(msg string) error {
	return httperror.NewHTTPError(http.StatusNotFound, msg)
}

func Validation(msg string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return httperror.NewHTTPError(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return httperror.NewHTTPError(http.StatusForbidden, msg)
}

// Conflict is reported as 400 with the conflict message, as clients expect.
func Conflict(msg string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, msg)
}

// Internal wraps an unexpected failure; its message is passed through.
func Internal(err error) error {
	return httperror.WrapError(http.StatusInternalServerError, err)
}

// Status resolves the HTTP status for any error returned by the services.
func Status(err error) int {
	var httpErr *httperror.HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrFileNotFound):
		return http.StatusNotFound
	case errors.As(err, &httpErr):
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err, without the status
// prefix httperror adds to Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *httperror.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}
