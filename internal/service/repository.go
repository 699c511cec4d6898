package service

import (
	"context"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

// UserRepository is the user persistence the services depend on. Lookups
// return repository.ErrUserNotFound for missing rows.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	RecordFailedLogin(ctx context.Context, id int64, at time.Time) error
	ClearFailedLogin(ctx context.Context, id int64) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash, salt string) error
	SetVerificationToken(ctx context.Context, id int64, token string) error
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetRole(ctx context.Context, id int64, role string) error
}

// SessionRepository is the session persistence behind SessionService.
// GetWithUser returns repository.ErrSessionNotFound when the session or its
// owner is missing.
type SessionRepository interface {
	Create(ctx context.Context, sess *model.Session) error
	GetWithUser(ctx context.Context, id string) (*model.Session, *model.User, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID int64, keepID string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
