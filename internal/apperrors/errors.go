package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidState indicates that the resource's lifecycle state does not allow the operation.
var ErrInvalidState = errors.New("operation not allowed in current state")

// ErrUnbalanced indicates that an entry's debits and credits do not match.
var ErrUnbalanced = errors.New("journal entry is not balanced")

// ErrPersistence indicates that the storage backend failed to load or save data.
var ErrPersistence = errors.New("persistence failure")

// ErrStaleSnapshot indicates that the stored journal changed since it was last loaded.
var ErrStaleSnapshot = errors.New("journal snapshot changed concurrently")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
