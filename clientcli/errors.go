package clientcli

import (
	"errors"
	"net/http"
	"strconv"
)

// Errors for profile operations.
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNoProfiles         = errors.New("no profiles configured")
	ErrDuplicateProfile   = errors.New("duplicate profile name")
	ErrInvalidProfileName = errors.New("profile name must be non-empty without spaces or slashes")
)

// Errors for configuration validation.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrInvalidEndpoint = errors.New("endpoint must be an http or https URL")
)

// Errors for input validation.
var (
	ErrNoNames     = errors.New("no image names provided")
	ErrEmptyPath   = errors.New("path is required")
	ErrIsDirectory = errors.New("path is a directory")
)

// Errors a ServerError unwraps to, by status code.
var (
	ErrNotFound    = errors.New("not found")
	ErrBadRequest  = errors.New("bad request")
	ErrForbidden   = errors.New("forbidden")
	ErrTooLarge    = errors.New("upload too large")
	ErrUnavailable = errors.New("backend unavailable")
)

// ServerError is a non-2xx response from the gateway. Message is the
// plain text body the server sent.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
}

// Unwrap maps well known status codes to sentinel errors so callers can
// use errors.Is(err, ErrNotFound).
func (e *ServerError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusRequestEntityTooLarge:
		return ErrTooLarge
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return nil
	}
}
