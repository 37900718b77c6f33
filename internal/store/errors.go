package store

import "errors"

var (
	// ErrEmailConflict is returned when an email already belongs to another user
	ErrEmailConflict = errors.New("email already exists")

	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")
)
