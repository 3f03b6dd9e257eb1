package repositories

import "errors"

var (
	// ErrDuplicateEmail is returned when creating a user would violate the
	// email unique index.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrNotFound covers both a missing row and a row owned by another user,
	// so callers cannot tell the two cases apart.
	ErrNotFound = errors.New("record not found")
)
