package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/migrations"
	"github.com/wanderplan/wanderplan-go/internal/notify"
	"github.com/wanderplan/wanderplan-go/internal/server"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the expired-session sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.MigrateOnStart && a.db != nil {
		if err := migrations.Up(ctx, a.db, a.dialect); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := clock.Real{}
	sessions := service.NewSessionService(a.sessions, clk, cfg.SessionTTL, m)
	auth := service.NewAuthService(a.users, sessions, a.hasher, notify.NewLogNotifier(cfg.AppBaseURL, nil), service.AuthOptions{
		SessionTTL:          cfg.SessionTTL,
		ShortSessionTTL:     cfg.SessionShortTTL,
		LockoutWindow:       cfg.LockoutWindow,
		ResetTokenTTL:       cfg.ResetTokenTTL,
		ResetSecret:         cfg.SessionSecret,
		LegacyHashMigration: cfg.LegacyHashMigration,
		Clock:               clk,
		Metrics:             m,
	})

	router := server.NewRouter(ctx, server.Deps{
		Config:   &cfg,
		Auth:     auth,
		Sessions: sessions,
		Admin:    service.NewAdminService(a.users, sessions, a.hasher),
		Codec: cookie.NewCodec(cookie.Options{
			Name:       cfg.SessionCookieName,
			Domain:     cfg.CookieDomain,
			Production: cfg.IsProduction(),
			MaxAge:     cfg.SessionTTL,
		}),
		Metrics:  m,
		Gatherer: reg,
	})
	srv := server.New(&cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env,
			"database", cfg.DatabaseDriver, "sessions", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sessions.RunSweeper(gctx, cfg.SessionSweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("server stopped")
	return nil
}
