// Package apperr holds the sentinel errors shared across staffline layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnsupported marks programmer or integration errors, e.g. a path
	// primitive the grid cannot normalise. Never recoverable by the user.
	ErrUnsupported  = errors.New("unsupported")
	ErrInvalidInput = errors.New("invalid input")
)
