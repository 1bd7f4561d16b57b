package foodshare

import (
	"errors"
	"fmt"
)

// Errors returned by the lifecycle operations. Callers match them with
// errors.Is; none of them are retried internally.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("food item is no longer available")
	ErrDuplicateRequest  = errors.New("an active request for this food item already exists")
	ErrAlreadyAllocated  = errors.New("food item has already been allocated")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrCommitFailed      = errors.New("commit failed")
)

// ValidationError describes a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
