package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUpstream           = errors.New("upstream service failure")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// ValidationError carries the offending field so handlers can report it.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
