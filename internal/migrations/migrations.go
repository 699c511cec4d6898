// Package migrations ships the schema for users and sessions and applies it
// with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/wanderplan/wanderplan-go/internal/repository"
)

//go:embed mysql/*.sql postgres/*.sql
var files embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// FS returns the migration files for dialect.
func FS(dialect repository.Dialect) (fs.FS, error) {
	return fs.Sub(files, string(dialect))
}

func setup(dialect repository.Dialect) error {
	sub, err := FS(dialect)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}
	goose.SetBaseFS(sub)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect repository.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setup(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, dialect repository.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setup(dialect); err != nil {
		return err
	}
	return goose.DownContext(ctx, db, ".")
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *sql.DB, dialect repository.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := setup(dialect); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, ".")
}
