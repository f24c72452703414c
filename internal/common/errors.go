// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Ledger and engine errors. Callers distinguish them with errors.Is.
var (
	// ErrNotFound means a referenced item, challenge or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotActive means a challenge has expired or is already completed.
	ErrNotActive = errors.New("challenge not active")
	// ErrNotTargeted means an item is not one of a challenge's targets.
	ErrNotTargeted = errors.New("item not targeted by challenge")
	// ErrConflict means an optimistic-concurrency update lost a race.
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrLedgerUnavailable means the wardrobe ledger could not be reached or read.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrInvalidInput means a request or record failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if a caller may transparently retry after err.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrLedgerUnavailable) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}

// Unavailable wraps a driver or I/O failure as ErrLedgerUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrLedgerUnavailable, err)
}

// FriendlyMessage returns the user-facing text for the engine's domain errors,
// or an empty string when err has no dedicated message.
func FriendlyMessage(err error) string {
	var userErr *UserError
	switch {
	case errors.As(err, &userErr):
		return userErr.UserMessage
	case errors.Is(err, ErrNotActive):
		return "This challenge has expired or is already complete."
	case errors.Is(err, ErrNotTargeted):
		return "That item is not part of this challenge."
	case errors.Is(err, ErrNotFound):
		return "We couldn't find that in your wardrobe."
	case errors.Is(err, ErrConflict), errors.Is(err, ErrLedgerUnavailable):
		return "Something went wrong, please try again."
	default:
		return ""
	}
}
