package domain

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrUpstreamTimeout     = errors.New("upstream timed out")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is any of the domain not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProgramNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrWeekNotFound)
}
