package repository

import "errors"

// ErrNotFound is returned when an id or key has no matching row.
var ErrNotFound = errors.New("not found")
