package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

const mysqlDuplicateEntry = 1062

// duplicateError maps a unique-constraint violation from either driver to
// ErrDuplicateEmail or ErrDuplicateUsername. Any other error returns nil.
func duplicateError(err error) error {
	if err == nil {
		return nil
	}

	var constraint string

	var myErr *mysql.MySQLError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry:
		// Duplicate entry 'x' for key 'users.uq_users_email'
		constraint = myErr.Message
		if i := strings.LastIndex(constraint, "for key"); i >= 0 {
			constraint = constraint[i:]
		}
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		constraint = pgErr.ConstraintName
	default:
		return nil
	}

	if strings.Contains(constraint, "user_name") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}
