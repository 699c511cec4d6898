package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrAccountDisabled          = errors.New("account has been deactivated")
	ErrNoPasswordSet            = errors.New("password not set for this account; use a different sign-in method")
	ErrRateLimited              = errors.New("too many failed sign-in attempts")
	ErrValidation               = errors.New("validation failed")
	ErrEmailTaken               = errors.New("email already taken")
	ErrUsernameTaken            = errors.New("username already taken")
	ErrPersistence              = errors.New("persistence failure")
	ErrInvalidCurrentPassword   = errors.New("current password is incorrect")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrAlreadyVerified          = errors.New("email already verified")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidRole              = errors.New("role must be user or admin")
)

// Conflict field names, as the sign-up form names them.
const (
	FieldEmail    = "email"
	FieldUsername = "userName"
)

// RateLimitedError is returned while an account is locked out after a failed
// sign-in. It matches ErrRateLimited.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s; try again in %s", ErrRateLimited, formatWait(e.RetryAfterSeconds()))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds returns the wait rounded up to whole seconds.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

func formatWait(secs int) string {
	if m := secs / 60; m > 0 {
		return fmt.Sprintf("%dm %ds", m, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}

// ValidationError describes a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError lists every unique field that collided on registration, email
// first. It matches ErrEmailTaken and ErrUsernameTaken accordingly.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		switch f {
		case FieldEmail:
			msgs = append(msgs, ErrEmailTaken.Error())
		case FieldUsername:
			msgs = append(msgs, ErrUsernameTaken.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func (e *ConflictError) Is(target error) bool {
	switch target {
	case ErrEmailTaken:
		return slices.Contains(e.Fields, FieldEmail)
	case ErrUsernameTaken:
		return slices.Contains(e.Fields, FieldUsername)
	}
	return false
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
