package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitedError(t *testing.T) {
	tests := []struct {
		wait    time.Duration
		seconds int
		text    string
	}{
		{wait: 250 * time.Second, seconds: 250, text: "try again in 4m 10s"},
		{wait: 59*time.Second + time.Millisecond, seconds: 60, text: "try again in 1m 0s"},
		{wait: 10 * time.Second, seconds: 10, text: "try again in 10s"},
		{wait: 0, seconds: 1, text: "try again in 1s"},
	}

	for _, tt := range tests {
		err := &RateLimitedError{RetryAfter: tt.wait}
		assert.Equal(t, tt.seconds, err.RetryAfterSeconds())
		assert.Contains(t, err.Error(), tt.text)
		assert.ErrorIs(t, err, ErrRateLimited)
	}
}

func TestConflictErrorMatching(t *testing.T) {
	email := &ConflictError{Fields: []string{FieldEmail}}
	assert.ErrorIs(t, email, ErrEmailTaken)
	assert.NotErrorIs(t, email, ErrUsernameTaken)
	assert.Equal(t, "email already taken", email.Error())

	wrapped := fmt.Errorf("register: %w", &ConflictError{Fields: []string{FieldUsername}})
	assert.ErrorIs(t, wrapped, ErrUsernameTaken)
}

func TestPersistenceErrorWrapsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := persistenceError("get session", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persistence failure: get session: timeout", err.Error())
}
