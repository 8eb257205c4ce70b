// Package apperr defines the error taxonomy surfaced to clients, either
// inside FetchStatus.failed{message} or the API's error envelope.
package apperr

import "net/http"

// Code is one of the fixed taxonomy values from the error handling design.
type Code string

const (
	Unauthorized         Code = "unauthorized"
	NoCredentials        Code = "no_credentials"
	BadCredentials       Code = "bad_credentials"
	PortalUnavailable    Code = "portal_unavailable"
	PortalBusy           Code = "portal_busy"
	NotFound             Code = "not_found"
	PersistentCorruption Code = "persistent_corruption"
	MaxAttempts          Code = "max_attempts"
	Internal             Code = "internal"
	Validation           Code = "validation"
)

// Error pairs a taxonomy code with a human-readable message. It implements
// error and carries enough information for handlers to pick an HTTP status
// without re-deriving it from string matching.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error for the given taxonomy code.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a taxonomy code to an underlying error.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// HTTPStatus maps a taxonomy code to the HTTP status request handlers
// should respond with.
func HTTPStatus(code Code) int {
	switch code {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case NoCredentials, BadCredentials:
		return http.StatusUnprocessableEntity
	case PortalUnavailable, PortalBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err, reporting whether it was one.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	ae, ok := err.(*Error)
	return ae, ok
}
