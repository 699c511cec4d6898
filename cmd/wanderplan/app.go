package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/repository"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

// app holds the persistence chosen by configuration.
type app struct {
	cfg      config.Config
	db       *sql.DB
	dialect  repository.Dialect
	redis    *redis.Client
	users    service.UserRepository
	sessions service.SessionRepository
	hasher   *crypto.Hasher
}

// openApp connects the configured user store and session backend.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, hasher: crypto.NewDefaultHasher()}

	if cfg.DatabaseDriver == config.DriverMemory {
		slog.Warn("using in-memory store; accounts and sessions are lost on exit")
		store := repository.NewMemoryStore()
		a.users = store.Users()
		a.sessions = store.Sessions()
	} else {
		dialect, err := repository.ParseDialect(cfg.DatabaseDriver)
		if err != nil {
			return nil, err
		}
		db, err := repository.NewDB(ctx, dialect, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.dialect = dialect
		a.users = repository.NewUserRepository(db, dialect)
		a.sessions = repository.NewSessionRepository(db, dialect)
	}

	if cfg.SessionBackend == config.BackendRedis {
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.sessions = repository.NewRedisSessionRepository(client, a.users)
	}

	return a, nil
}

// requireDB fails for commands that need a SQL database.
func (a *app) requireDB() error {
	if a.db == nil {
		return fmt.Errorf("command requires DATABASE_DRIVER=%s or %s", config.DriverMySQL, config.DriverPostgres)
	}
	return nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}
}
