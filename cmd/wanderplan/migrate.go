package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/migrations"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(fn func(context.Context, *sql.DB, repository.Dialect) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireDB(); err != nil {
				return err
			}
			return fn(cmd.Context(), a.db, a.dialect)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(migrations.Up)},
		&cobra.Command{Use: "down", Short: "Roll back the latest migration", RunE: run(migrations.Down)},
		&cobra.Command{Use: "status", Short: "Print migration status", RunE: run(migrations.Status)},
	)
	return cmd
}
