package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

// ChangePassword replaces the password of a signed-in user after re-checking
// the current one. Every other session of the user is revoked.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentSessionID string, req model.ChangePasswordRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrNoPasswordSet
	}

	if match, _ := s.verify(req.CurrentPassword, *user.PasswordHash, *user.Salt); !match {
		return ErrInvalidCurrentPassword
	}

	if err := validateNewPassword("newPassword", req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeOthers(ctx, user.ID, currentSessionID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "password changed", "user_id", user.ID, "sessions_revoked", revoked)
	return nil
}

// RequestPasswordReset sends a reset link when email belongs to an active
// account with a password. Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: ErrEmailRequired.Error()}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return persistenceError("lookup user", err)
	}
	if !user.IsActive || !user.HasPassword() {
		return nil
	}

	token, err := crypto.GenerateResetToken(user.ID, crypto.CredentialFingerprint(*user.Salt), s.opts.ResetSecret, s.opts.ResetTokenTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, token); err != nil {
		slog.WarnContext(ctx, "password reset email not sent", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password from a reset token and revokes every
// session of the account. The token is bound to the old salt, so it stops
// working once used.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	claims, err := crypto.ValidateResetToken(req.Token, s.opts.ResetSecret)
	if err != nil {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return persistenceError("get user", err)
	}
	if !user.IsActive || !user.HasPassword() || crypto.CredentialFingerprint(*user.Salt) != claims.Fingerprint {
		return ErrInvalidResetToken
	}

	if err := validateNewPassword("password", req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, req.Password); err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeAll(ctx, user.ID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "password reset", "user_id", user.ID, "sessions_revoked", revoked)
	return nil
}

// setPassword hashes password with a fresh salt and stores it. The lockout
// marker is cleared with it.
func (s *AuthService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, salt); err != nil {
		return persistenceError("update password", err)
	}
	return nil
}
