// Package server wires the HTTP router: global middleware, the request gate
// and every route.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/handler"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/middleware"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

// Deps are the services the router serves.
type Deps struct {
	Config   *config.Config
	Auth     *service.AuthService
	Sessions *service.SessionService
	Admin    *service.AdminService
	Codec    *cookie.Codec
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the application handler. ctx bounds background work
// owned by the router, such as rate limiter eviction.
func NewRouter(ctx context.Context, d Deps) http.Handler {
	cfg := d.Config

	gate := middleware.NewGate(
		middleware.NewPathClassifier(cfg.Paths),
		d.Sessions,
		d.Codec,
		middleware.GateOptions{
			SignInPath:  cfg.Paths.SignIn,
			SignUpPath:  cfg.Paths.SignUp,
			LandingPath: cfg.Paths.Landing,
			Metrics:     d.Metrics,
		},
	)

	authHandler := handler.NewAuthHandler(d.Auth, d.Codec, cfg.Paths.SignIn, cfg.Paths.Landing)
	pageHandler := handler.NewPageHandler(cfg.Paths.Landing)
	adminHandler := handler.NewAdminHandler(d.Admin)
	authLimit := middleware.RateLimit(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)

	r := chi.NewRouter()
	r.Use(middleware.Recover)
	r.Use(middleware.Logger)
	r.Use(middleware.Instrument(d.Metrics))
	r.Use(apiOnly(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})))
	r.Use(gate.Handler)

	r.Get("/health", handler.HandleHealth)
	r.Get("/api/public/health", handler.HandleHealth)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	r.Get("/", pageHandler.HandleHome)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get(cfg.Paths.SignIn, pageHandler.HandleSignInPage)
		r.Get(cfg.Paths.SignUp, pageHandler.HandleSignUpPage)
		r.Get("/auth/error", pageHandler.HandleAuthError)
		r.Get("/auth/signout", authHandler.HandleSignOutPage)
		r.Get("/__protected__/dashboard", pageHandler.HandleDashboard)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Group(func(r chi.Router) {
			r.Use(authLimit)
			r.Post("/signin", authHandler.HandleSignIn)
			r.Post("/signup", authHandler.HandleSignUp)
			r.Post("/password-reset/request", authHandler.HandlePasswordResetRequest)
			r.Post("/password-reset/confirm", authHandler.HandlePasswordResetConfirm)
		})

		r.Post("/signout", authHandler.HandleSignOut)
		r.Get("/session", authHandler.HandleSession)
		r.Get("/me", authHandler.HandleMe)
		r.Post("/password", authHandler.HandleChangePassword)
		r.Post("/verify-email/confirm", authHandler.HandleVerifyEmail)
		r.Post("/verify-email/resend", authHandler.HandleResendVerification)
	})

	r.Get("/admin/users", adminHandler.HandleListUsers)
	r.Route("/api/v1/admin/users", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/", adminHandler.HandleListUsers)
		r.Post("/{id}/activate", adminHandler.HandleActivate)
		r.Post("/{id}/deactivate", adminHandler.HandleDeactivate)
		r.Put("/{id}/role", adminHandler.HandleSetRole)
	})

	return r
}

func apiOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// New returns an http.Server for h listening on cfg.Port.
func New(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
