package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

// SessionRepository persists sessions in the sessions table.
type SessionRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB, dialect Dialect) *SessionRepository {
	return &SessionRepository{db: db, dialect: dialect}
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, sess *model.Session) error {
	query := r.dialect.Rebind(`INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetWithUser loads a session together with its owner in one query.
// Expiry is not checked here.
func (r *SessionRepository) GetWithUser(ctx context.Context, id string) (*model.Session, *model.User, error) {
	query := r.dialect.Rebind(`SELECT s.id, s.user_id, s.expires_at, s.created_at,
		u.id, u.email, u.user_name, u.password, u.salt, u.display_name, u.role, u.is_active,
		u.email_verified, u.verification_token, u.last_login, u.last_failed_login, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`)

	sess := &model.Session{}
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt,
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Salt, &u.DisplayName, &u.Role, &u.IsActive,
		&u.EmailVerified, &u.VerificationToken, &u.LastLogin, &u.LastFailedLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}

	return sess, u, nil
}

// Delete removes one session. Deleting a missing row is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := r.dialect.Rebind(`DELETE FROM sessions WHERE id = ?`)

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session of userID except keepID. An empty keepID
// removes all of them.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID int64, keepID string) (int64, error) {
	query := `DELETE FROM sessions WHERE user_id = ?`
	args := []any{userID}
	if keepID != "" {
		query += ` AND id <> ?`
		args = append(args, keepID)
	}

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteExpired removes sessions whose expiry is at or before the given time.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := r.dialect.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`)

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
