package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrProgressionNotFound = errors.New("progression not found")
	ErrValidation          = errors.New("validation failed")
)

// ValidationError reports a malformed or out-of-range input field.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
