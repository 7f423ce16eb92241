package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRedisGet    = errors.New("redis get error")
	ErrRedisSet    = errors.New("redis set error")
	ErrRedisDelete = errors.New("redis delete error")
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("too many attempts")
)

// Lookups that come back empty wrap ErrNotFound so handlers can match either.
var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrVenueNotFound   = fmt.Errorf("venue %w", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
)

var (
	ErrAlreadyInSession = errors.New("admin already has an active support session")
	ErrNoActiveSession  = errors.New("no active support session")
)

var (
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInactive = errors.New("session inactive")
	ErrSessionCreating = errors.New("error creating session")
	ErrSessionUpdating = errors.New("error updating session")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrDatabaseUpdate = errors.New("database update error")
)

// RateLimitedError carries the window state of a rejected attempt.
type RateLimitedError struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %s", e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// Validation wraps ErrValidation with a field-specific message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
