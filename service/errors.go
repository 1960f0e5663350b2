package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Every DomainError matches exactly one of these with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
)

// ErrInsufficientBalance is returned by repositories when a conditional debit matches no row
var ErrInsufficientBalance = errors.New("insufficient balance")

// DomainError is a caller-facing failure scoped to a single operation
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is lets errors.Is match the error kind
func (e *DomainError) Is(target error) bool {
	return e.Kind == target
}

func NewValidationError(format string, args ...any) error {
	return &DomainError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...any) error {
	return &DomainError{Kind: ErrAuthorization, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &DomainError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) error {
	return &DomainError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// IsDomainError reports whether err carries a caller-facing kind
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
