package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrDuplicateOffset is returned by MessageStore.SaveMessage when the
	// client offset was already stored; callers treat it as an idempotent
	// retry, not a failure.
	ErrDuplicateOffset = errors.New("duplicate client offset")
)
