package model

import "errors"

// Error taxonomy shared across the store and query layers. Callers match
// with errors.Is; storage failures are whatever the driver returned, wrapped.
var (
	// ErrValidation marks rejected input, e.g. an empty task title.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an update or delete that referenced an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument marks malformed calendar or window inputs.
	ErrInvalidArgument = errors.New("invalid argument")
)
