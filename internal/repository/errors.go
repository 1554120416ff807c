package repository

import "errors"

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("record not found")
