package models

import (
	"errors"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication guard errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrUnauthorized       = errors.New("unauthorized")

	// Booking errors
	ErrRoomUnavailable   = errors.New("room is not available for the requested dates")
	ErrInvalidDateRange  = errors.New("check-out date must be after check-in date")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)

// AuthError wraps an authentication sentinel with the throttling details the
// API reports back to the caller (attempts remaining, when to retry).
type AuthError struct {
	Err               error
	AttemptsRemaining int
	RetryAfterSeconds int
	RetryAt           time.Time
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }
