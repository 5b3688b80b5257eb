package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
)

// Lookup errors. Records owned by another tenant are reported with the same
// errors as records that do not exist.
var (
	ErrNotFound       = errors.New("not found")
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrClientNotFound = fmt.Errorf("client %w", ErrNotFound)
	ErrDealNotFound   = fmt.Errorf("deal %w", ErrNotFound)
	ErrTaskNotFound   = fmt.Errorf("task %w", ErrNotFound)
	ErrNoteNotFound   = fmt.Errorf("note %w", ErrNotFound)
)

// Pipeline errors
var (
	ErrInvalidStage = errors.New("invalid deal stage")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned by the validation layer before any storage call.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a validation error for one field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the error concerns the given field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
