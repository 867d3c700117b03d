package errvalues

import "errors"

var (
	// ErrNotFound is returned when an id does not resolve to a stored record.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks payloads that fail their shape check.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence means the in-memory change succeeded but the durable write did not.
	ErrPersistence = errors.New("persistence failed")
	// ErrInvalidState is returned for operations against an invalid logical state.
	ErrInvalidState = errors.New("invalid state")
)
