package services

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced to the HTTP layer
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUnknownEntityKind  = errors.New("unknown entity kind")
)

// ValidationError carries the messages produced by a form's Validate method
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, ", ")
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
