package gateway

import (
	"errors"
	"fmt"

	app_errors "github.com/docchat/cli/internal/errors"
)

// BackendError is returned when the backend answered with a non-2xx status,
// or with a 2xx body that could not be decoded.
type BackendError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: backend error %d: %v", e.Op, e.Status, e.Err)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend error %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend error %d - %s", e.Op, e.Status, e.Detail)
}

func (e *BackendError) Unwrap() error { return e.Err }

// TransportError is returned when no response was received at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Detail turns err into the text shown to the user: the backend's detail
// when it sent one, the message of a local validation error, or fallback.
func Detail(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	if app_errors.IsValidation(err) {
		return err.Error()
	}
	return fallback
}
