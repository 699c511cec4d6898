package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

// VerifyEmail consumes a verification token and marks the address verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidVerificationToken
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidVerificationToken
		}
		return persistenceError("lookup verification token", err)
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID, s.opts.Clock.Now()); err != nil {
		return persistenceError("mark email verified", err)
	}

	slog.InfoContext(ctx, "email verified", "user_id", user.ID)
	return nil
}

// ResendVerification issues a new verification token for userID.
func (s *AuthService) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified != nil {
		return ErrAlreadyVerified
	}

	token, err := crypto.GenerateToken(crypto.VerificationTokenBytes)
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationToken(ctx, user.ID, token); err != nil {
		return persistenceError("store verification token", err)
	}

	return s.notifier.SendVerification(ctx, user.Email, token)
}
