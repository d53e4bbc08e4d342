package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or rejected access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates input rejected before reaching the backend.
	ErrValidation = errors.New("validation failed")
	// ErrSessionInvalid indicates an empty token or unreadable session payload.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
