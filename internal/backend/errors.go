package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyBody is returned when a 2xx reply carries no JSON.
var ErrEmptyBody = errors.New("backend: empty body")

// Error is a non-2xx reply or a transport failure.
type Error struct {
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("backend: status %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("backend: status %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) && be.Status > 0 {
		return be.Status
	}
	return http.StatusInternalServerError
}

// MessageOf extracts the message the backend sent, falling back to fallback
// for transport failures and replies without one.
func MessageOf(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}

// IsUnauthorized reports whether the backend rejected the token.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
