package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// AdminService backs the admin API and the user commands of the CLI.
type AdminService struct {
	users    UserRepository
	sessions *SessionService
	hasher   *crypto.Hasher
}

// NewAdminService creates a new AdminService.
func NewAdminService(users UserRepository, sessions *SessionService, hasher *crypto.Hasher) *AdminService {
	return &AdminService{users: users, sessions: sessions, hasher: hasher}
}

// ListUsers returns a page of users. limit is clamped to MaxListLimit.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]*model.Identity, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, persistenceError("list users", err)
	}

	out := make([]*model.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, u.Identity())
	}
	return out, nil
}

// SetActive enables or disables an account. Disabling also deletes its
// sessions, although a disabled owner already invalidates them.
func (s *AdminService) SetActive(ctx context.Context, userID int64, active bool) error {
	if _, err := s.get(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return persistenceError("set active", err)
	}

	if !active {
		if _, err := s.sessions.RevokeAll(ctx, userID); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "account state changed", "user_id", userID, "active", active)
	return nil
}

// SetRole changes the role of userID.
func (s *AdminService) SetRole(ctx context.Context, userID int64, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != model.RoleUser && role != model.RoleAdmin {
		return ErrInvalidRole
	}
	if _, err := s.get(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return persistenceError("set role", err)
	}

	slog.InfoContext(ctx, "role changed", "user_id", userID, "role", role)
	return nil
}

// CreateUser inserts an account directly, already verified. An empty
// password is replaced by a generated one, which is returned.
func (s *AdminService) CreateUser(ctx context.Context, email, username, role, password string) (*model.Identity, string, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, "", ErrInvalidRole
	}

	if password == "" {
		generated, err := crypto.GenerateTemporaryPassword(crypto.DefaultPasswordPolicy())
		if err != nil {
			return nil, "", err
		}
		password = generated
	}

	if err := validateRegistration(email, username, "", password, password); err != nil {
		return nil, "", err
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		Salt:         &salt,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, "", &ConflictError{Fields: []string{FieldEmail}}
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, "", &ConflictError{Fields: []string{FieldUsername}}
		}
		return nil, "", persistenceError("create user", err)
	}

	return user.Identity(), password, nil
}

// SetPassword replaces the password of the account with the given email and
// revokes its sessions. An empty password is replaced by a generated one,
// which is returned.
func (s *AdminService) SetPassword(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", persistenceError("lookup user", err)
	}

	if password == "" {
		if password, err = crypto.GenerateTemporaryPassword(crypto.DefaultPasswordPolicy()); err != nil {
			return "", err
		}
	}
	if err := validateNewPassword("password", password, password); err != nil {
		return "", err
	}

	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return "", persistenceError("update password", err)
	}
	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "password set by administrator", "user_id", user.ID)
	return password, nil
}

// UserIDByEmail resolves an email to an account id.
func (s *AdminService) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, persistenceError("lookup user", err)
	}
	return user.ID, nil
}

func (s *AdminService) get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("get user", err)
	}
	return user, nil
}
