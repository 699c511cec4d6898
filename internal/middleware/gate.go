package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/model"
)

// Decision reasons, also used as the gate metric label.
const (
	ReasonPublic           = "public"
	ReasonAsset            = "asset"
	ReasonAuthenticated    = "authenticated"
	ReasonNoSession        = "no_session"
	ReasonSessionExpired   = "session_expired"
	ReasonForbidden        = "forbidden"
	ReasonAuthPageBounce   = "auth_page_bounce"
	ReasonPersistenceError = "persistence_error"
)

// SessionResolver looks up a session and its owner. It returns nil without
// an error when the session is missing, expired or belongs to an inactive
// account.
type SessionResolver interface {
	Get(ctx context.Context, sessionID string) (*model.Session, *model.User, error)
}

// GateOptions configures a Gate.
type GateOptions struct {
	SignInPath  string
	SignUpPath  string
	LandingPath string
	Metrics     *metrics.Metrics
}

// Decision is the outcome of running the gate on one request.
type Decision struct {
	Allow       bool
	StatusCode  int
	RedirectTo  string
	ClearCookie bool
	Identity    *model.Identity
	SessionID   string
	ExpiresAt   time.Time
	Reason      string
	Err         error
}

// Gate authenticates and authorizes every request before it reaches a
// handler.
type Gate struct {
	paths    *PathClassifier
	sessions SessionResolver
	codec    *cookie.Codec
	opts     GateOptions
	tracer   trace.Tracer
}

// NewGate creates a new Gate.
func NewGate(paths *PathClassifier, sessions SessionResolver, codec *cookie.Codec, opts GateOptions) *Gate {
	if opts.SignInPath == "" {
		opts.SignInPath = "/auth/signin"
	}
	if opts.SignUpPath == "" {
		opts.SignUpPath = "/auth/signup"
	}
	if opts.LandingPath == "" {
		opts.LandingPath = "/__protected__/dashboard"
	}
	return &Gate{
		paths:    paths,
		sessions: sessions,
		codec:    codec,
		opts:     opts,
		tracer:   otel.Tracer("github.com/wanderplan/wanderplan-go/internal/middleware"),
	}
}

// Decide runs classification, session resolution, authorization and the
// auth-page bounce for r. It never writes to the response.
func (g *Gate) Decide(r *http.Request) Decision {
	ctx, span := g.tracer.Start(r.Context(), "Gate.Decide")
	defer span.End()

	p := NormalizePath(r.URL.Path)
	class := g.paths.Classify(p)
	span.SetAttributes(attribute.String("gate.class", class.String()))

	d := g.decide(ctx, r, p, class)
	span.SetAttributes(attribute.String("gate.reason", d.Reason))
	return d
}

func (g *Gate) decide(ctx context.Context, r *http.Request, p string, class PathClass) Decision {
	if class == ClassAsset {
		return Decision{Allow: true, Reason: ReasonAsset}
	}

	authPage := p == NormalizePath(g.opts.SignInPath) || p == NormalizePath(g.opts.SignUpPath)
	hadCookie := g.codec.HasCookie(r)
	sessionID, ok := g.codec.FromRequest(r)

	if class == ClassPublic {
		if !ok {
			return Decision{Allow: true, Reason: ReasonPublic, ClearCookie: hadCookie && authPage}
		}
		sess, user, err := g.sessions.Get(ctx, sessionID)
		if err != nil {
			return g.failure(err)
		}
		if sess == nil {
			return Decision{Allow: true, Reason: ReasonPublic, ClearCookie: authPage}
		}
		if authPage {
			return Decision{StatusCode: http.StatusSeeOther, RedirectTo: g.opts.LandingPath, Reason: ReasonAuthPageBounce}
		}
		return allow(ReasonPublic, sess, user)
	}

	api := isAPIPath(p)

	if !ok {
		if hadCookie {
			return g.unauthenticated(r, api, ReasonSessionExpired, true)
		}
		return g.unauthenticated(r, api, ReasonNoSession, false)
	}

	sess, user, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return g.failure(err)
	}
	if sess == nil {
		return g.unauthenticated(r, api, ReasonSessionExpired, true)
	}

	if class == ClassAdmin && !user.IsAdmin() {
		return Decision{StatusCode: http.StatusForbidden, Reason: ReasonForbidden, Identity: user.Identity(), SessionID: sess.ID}
	}

	return allow(ReasonAuthenticated, sess, user)
}

func allow(reason string, sess *model.Session, user *model.User) Decision {
	return Decision{
		Allow:     true,
		Reason:    reason,
		Identity:  user.Identity(),
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
	}
}

func (g *Gate) failure(err error) Decision {
	return Decision{StatusCode: http.StatusInternalServerError, Reason: ReasonPersistenceError, Err: err}
}

// unauthenticated sends browsers to the sign-in page with a callback to the
// requested URI. API callers get a 401 instead.
func (g *Gate) unauthenticated(r *http.Request, api bool, reason string, clear bool) Decision {
	if api {
		return Decision{StatusCode: http.StatusUnauthorized, Reason: reason, ClearCookie: clear}
	}

	target := g.opts.SignInPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
	if reason == ReasonSessionExpired {
		target += "&error=session_expired"
	}
	return Decision{StatusCode: http.StatusSeeOther, RedirectTo: target, Reason: reason, ClearCookie: clear}
}

// Handler applies Decide to every request.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Decide(r)
		g.opts.Metrics.GateDecision(d.Reason)

		if d.ClearCookie {
			http.SetCookie(w, g.codec.Clear())
		}

		if d.Allow {
			ctx := r.Context()
			if d.Identity != nil {
				ctx = WithIdentity(ctx, d.Identity, d.SessionID, d.ExpiresAt)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if d.RedirectTo != "" {
			http.Redirect(w, r, d.RedirectTo, d.StatusCode)
			return
		}

		switch d.StatusCode {
		case http.StatusUnauthorized:
			msg := "authentication required"
			if d.Reason == ReasonSessionExpired {
				msg = "session expired"
			}
			writeJSONError(w, http.StatusUnauthorized, msg)
		case http.StatusForbidden:
			writeJSONError(w, http.StatusForbidden, "forbidden")
		default:
			slog.ErrorContext(r.Context(), "session lookup failed", "path", r.URL.Path, "error", d.Err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
		}
	})
}
