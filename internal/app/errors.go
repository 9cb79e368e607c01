package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is shown to end users and must not enable
	// account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	// ErrEmailNotVerified is returned on login before the signup OTP was
	// confirmed.
	ErrEmailNotVerified = errors.New("Please verify your email before logging in")

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrEmailRequired      = errors.New("email required")
	ErrAccountNotFound    = errors.New("no account found for this email")

	// ErrInvalidOrExpiredCode covers wrong code, expired code, missing code,
	// and too many attempts; one message for all so nothing leaks.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

	// ErrResendCooldown is returned when a code is requested again too soon.
	ErrResendCooldown = errors.New("please wait before requesting another code")

	ErrUnauthorized    = errors.New("unauthorized")
	ErrUserDisabled    = errors.New("user disabled")
	ErrLimitExceeded   = errors.New("daily limit reached")
	ErrNotFound        = errors.New("not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrSyncUnavailable = errors.New("progress sync is not available")

	ErrLeetCodeNotLinked    = errors.New("no LeetCode username linked to this profile")
	ErrLeetCodeUserNotFound = errors.New("LeetCode user not found")
	ErrSubmissionNotFound   = errors.New("no recent accepted submission found for this question")
)

// ValidationError marks a rejected user input. Its message is safe to show
// to the caller; every other non-sentinel error is a backend failure and
// must stay opaque.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func invalidInputf(format string, args ...any) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}
