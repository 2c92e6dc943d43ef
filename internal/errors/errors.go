package errors

import (
	"errors"
	"fmt"
)

// ErrValidation marks a failure detected locally, before any request is
// made to the backend (empty message, no file selected, bad file type).
var ErrValidation = errors.New("validation failed")

// Validationf returns an error wrapping ErrValidation. Its Error() text is
// the formatted message alone, so it can be shown to the user as is.
func Validationf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
