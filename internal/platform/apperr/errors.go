// Package apperr defines the error taxonomy shared by services and HTTP handlers.
// Services return these values (possibly wrapped); handlers map them to status codes.
package apperr

import (
	"errors"
	"strings"
)

// Sentinel errors. Handlers map them with errors.Is.
var (
	// ErrNotFound is returned when a target resource does not exist (404).
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden is returned when the acting user may not access the target (403).
	ErrForbidden = errors.New("access denied")
	// ErrAuthFailed is the single login failure; it never says which credential was wrong (401).
	ErrAuthFailed = errors.New("authentication failed")
	// ErrBadRequest is returned for malformed requests that are not field validation failures (400).
	ErrBadRequest = errors.New("bad request")
	// ErrConflict is returned by stores on a uniqueness violation. Services translate it into field errors.
	ErrConflict = errors.New("unique constraint violated")
)

// FieldError is one failed field in a validation pass.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed field of a request (422).
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns e if it holds at least one field error, otherwise nil.
// Lets callers build a ValidationError unconditionally and return it as an error.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Invalid returns a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// AsValidation reports whether err is (or wraps) a *ValidationError and returns it.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
