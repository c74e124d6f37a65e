package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the typed errors below carry the details.
var (
	ErrValidation = errors.New("validation error")
	ErrReference  = errors.New("reference error")
	ErrStorage    = errors.New("storage error")
	ErrNotFound   = errors.New("not found")
)

// ValidationError is malformed or out-of-range user input. Never corrupts stored state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReferenceError is a write or lookup against a project id that does not exist.
type ReferenceError struct {
	ProjectID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("project %q not found", e.ProjectID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

// StorageError is a failure of the underlying store (disk, lock contention, driver).
// Callers may retry the operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
