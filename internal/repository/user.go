package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

const userColumns = `id, email, user_name, password, salt, display_name, role, is_active,
	email_verified, verification_token, last_login, last_failed_login, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, user_name, password, salt, display_name, role, is_active, verification_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		user.Email, user.Username, user.PasswordHash, user.Salt, user.DisplayName,
		user.Role, user.IsActive, user.VerificationToken,
	}

	if r.dialect == Postgres {
		err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query+` RETURNING id, created_at, updated_at`), args...).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if dup := duplicateError(err); dup != nil {
				return dup
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	now := time.Now().UTC()
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by their normalized email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByUsername retrieves a user by user name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_name = ?`, username)
}

// GetByVerificationToken retrieves the user holding an email verification token.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = ?`, token)
}

// List returns users ordered by id.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// RecordFailedLogin stamps the lockout marker.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_failed_login = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, at, id)
}

// ClearFailedLogin removes the lockout marker.
func (r *UserRepository) ClearFailedLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE users SET last_failed_login = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
}

// RecordLogin stores a successful sign-in and clears the lockout marker.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = ?, last_failed_login = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, at, id)
}

// UpdatePassword replaces the credential and clears the lockout marker.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash, salt string) error {
	return r.exec(ctx, `UPDATE users SET password = ?, salt = ?, last_failed_login = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hash, salt, id)
}

// SetVerificationToken stores a new email verification token.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id int64, token string) error {
	return r.exec(ctx, `UPDATE users SET verification_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, token, id)
}

// MarkEmailVerified stamps email_verified and consumes the verification token.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET email_verified = ?, verification_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, at, id)
}

// SetActive enables or disables an account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
}

// SetRole changes an account's role.
func (r *UserRepository) SetRole(ctx context.Context, id int64, role string) error {
	return r.exec(ctx, `UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, role, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Salt, &u.DisplayName, &u.Role, &u.IsActive,
		&u.EmailVerified, &u.VerificationToken, &u.LastLogin, &u.LastFailedLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
