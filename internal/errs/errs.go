// Package errs contains the error taxonomy shared by the repository, service
// and HTTP layers. Repositories and services return these values; the HTTP
// layer is the only place that maps them to status codes.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the referenced contact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidID indicates an identifier that does not have the store's shape.
	ErrInvalidID = errors.New("invalid id")
)

// FieldError is a single violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// NewValidation returns a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ConflictError describes which unique field collided.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Message is the user facing text, e.g. "Email already exists".
func (e *ConflictError) Message() string {
	if e.Field == "" {
		return "Resource already exists"
	}
	return strings.ToUpper(e.Field[:1]) + e.Field[1:] + " already exists"
}

// NotFound wraps ErrNotFound with a user facing message.
func NotFound(message string) error {
	return &notFoundError{message: message}
}

type notFoundError struct {
	message string
}

func (e *notFoundError) Error() string { return e.message }
func (e *notFoundError) Unwrap() error { return ErrNotFound }

// InvalidID wraps ErrInvalidID for the given raw value.
func InvalidID(value string) error {
	return fmt.Errorf("%w: %s", ErrInvalidID, value)
}
