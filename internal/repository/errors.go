package repository

import "errors"

var (
	// ErrNotFound is wrapped by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the row changed since it was read.
	ErrConflict = errors.New("version conflict")
)
