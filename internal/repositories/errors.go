package repositories

import "errors"

// ErrNotFound is returned when a referenced record does not exist. Callers
// branch on it with errors.Is.
var ErrNotFound = errors.New("record not found")
