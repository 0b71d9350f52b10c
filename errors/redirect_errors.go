// errors/redirect_errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrRedirectNotFound    = errors.New("redirect not found")
	ErrInvalidRedirectData = errors.New("invalid redirect data")
	ErrRedirectConflict    = errors.New("a redirect with this source already exists")
	ErrMissingRedirectID   = errors.New("redirect id is required")
)

// ValidationError reports which field of a redirect was rejected.
// It matches ErrInvalidRedirectData with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRedirectData
}
