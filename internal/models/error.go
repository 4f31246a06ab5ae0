package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email is already registered")

	// Business rule errors
	ErrInvalidAmount     = errors.New("amount must be a positive value with at most two decimal places")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrReceiverNotFound  = errors.New("receiver account not found")
	ErrAccountNotFound   = errors.New("account not found")
)

// AccountLockedError is returned when login attempts are temporarily blocked
// for an email. RetryAfter is the time remaining until the lockout expires.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d second(s)", int(e.RetryAfter.Seconds())+1)
}

// ValidationError aggregates input validation failures. It is rejected before
// any transaction opens and never produces an audit entry.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Errors, "; ")
}
