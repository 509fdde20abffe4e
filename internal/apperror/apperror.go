// Package apperror defines the tagged failures returned by the domain
// services. The HTTP layer maps them to status codes with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrDuplicateEmail  = errors.New("duplicate email")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")
)

type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Validation(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Unauthenticated carries one fixed message for every credential failure.
func Unauthenticated() *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: "could not validate credentials"}
}

func DuplicateEmail() *AppError {
	return &AppError{Err: ErrDuplicateEmail, Message: "a user with this email already exists", Field: "email"}
}

// NotFound is returned both for missing records and for records owned by
// another user.
func NotFound(resource string) *AppError {
	return &AppError{Err: ErrNotFound, Message: resource + " not found"}
}

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
