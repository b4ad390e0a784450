package imgtransfer

import "errors"

var (
	// ErrNotFound is returned when an object does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when request validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrPermissionDenied is returned when the backend refuses the operation
	ErrPermissionDenied = errors.New("permission denied")
	// ErrBackendUnavailable is returned when the backend cannot be reached or is overloaded
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
