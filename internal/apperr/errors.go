// Package apperr holds the sentinel errors shared across service boundaries.
// Wrap them with %w and test with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid marks input rejected before it reached storage.
	ErrInvalid = errors.New("invalid input")
	// ErrInvalidAsset marks an upload that is not an allowed image.
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrUnavailable marks a failing external collaborator (object store,
	// remote fetch). Callers may retry.
	ErrUnavailable = errors.New("unavailable")
)
