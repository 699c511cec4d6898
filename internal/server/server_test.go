package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/notify"
	"github.com/wanderplan/wanderplan-go/internal/repository"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
	hasher  *crypto.Hasher
}

func newTestServer(t *testing.T, vars map[string]string) *testServer {
	t.Helper()

	cfg, err := config.LoadFrom(vars)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := repository.NewMemoryStore()
	hasher := crypto.NewHasher(crypto.ScryptParams{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 64})
	sessions := service.NewSessionService(store.Sessions(), nil, cfg.SessionTTL, m)
	auth := service.NewAuthService(store.Users(), sessions, hasher, notify.NewLogNotifier(cfg.AppBaseURL, nil), service.AuthOptions{
		SessionTTL:      cfg.SessionTTL,
		ShortSessionTTL: cfg.SessionShortTTL,
		LockoutWindow:   cfg.LockoutWindow,
		ResetSecret:     cfg.SessionSecret,
		Metrics:         m,
	})

	h := NewRouter(ctx, Deps{
		Config:   &cfg,
		Auth:     auth,
		Sessions: sessions,
		Admin:    service.NewAdminService(store.Users(), sessions, hasher),
		Codec:    cookie.NewCodec(cookie.Options{Name: cfg.SessionCookieName, MaxAge: cfg.SessionTTL}),
		Metrics:  m,
		Gatherer: reg,
	})
	return &testServer{handler: h, store: store, hasher: hasher}
}

func (s *testServer) seedUser(t *testing.T, email, username, password, role string) {
	t.Helper()
	hash, salt, err := s.hasher.Hash(password)
	require.NoError(t, err)
	require.NoError(t, s.store.Users().Create(context.Background(), &model.User{
		Email: email, Username: username, PasswordHash: &hash, Salt: &salt, Role: role, IsActive: true,
	}))
}

func (s *testServer) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signIn(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/auth/signin", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seedUser(t, "alice@example.com", "alice", "Secret123!", model.RoleUser)

	rec := srv.do(http.MethodGet, "/__protected__/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/signin?callbackUrl=%2F__protected__%2Fdashboard", rec.Header().Get("Location"))

	session := srv.signIn(t, "alice@example.com", "Secret123!")
	assert.Regexp(t, `^[0-9a-f]{64}$`, session.Value)

	rec = srv.do(http.MethodGet, "/__protected__/dashboard", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	rec = srv.do(http.MethodGet, "/auth/signin", "", session)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/__protected__/dashboard", rec.Header().Get("Location"))

	rec = srv.do(http.MethodGet, "/api/v1/auth/session", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":true`)

	rec = srv.do(http.MethodPost, "/api/v1/auth/signout", "", session)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodGet, "/__protected__/dashboard", "", session)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=session_expired")

	rec = srv.do(http.MethodGet, "/api/v1/auth/me", "", session)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{"/health", "/api/public/health"} {
		rec := srv.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "ok", rec.Body.String(), target)
	}

	rec := srv.do(http.MethodGet, "/api/v1/auth/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isAuthenticated":false`)

	rec = srv.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seedUser(t, "alice@example.com", "alice", "Secret123!", model.RoleUser)
	srv.seedUser(t, "root@example.com", "root", "Secret123!", model.RoleAdmin)

	alice := srv.signIn(t, "alice@example.com", "Secret123!")
	root := srv.signIn(t, "root@example.com", "Secret123!")

	rec := srv.do(http.MethodGet, "/admin/users", "", alice)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "forbidden keeps the session")

	rec = srv.do(http.MethodGet, "/api/v1/admin/users", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/admin/users", "", root)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	rec = srv.do(http.MethodPost, "/api/v1/admin/users/1/deactivate", "", root)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(http.MethodGet, "/api/v1/auth/me", "", alice)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUpCollisionReportsEmail(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.seedUser(t, "alice@example.com", "alice", "Secret123!", model.RoleUser)

	rec := srv.do(http.MethodPost, "/api/v1/auth/signup",
		`{"email":"alice@example.com","userName":"alice-two","password":"Secret123!","confirmPassword":"Secret123!"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already taken")
	assert.NotContains(t, rec.Body.String(), "username already taken")
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"AUTH_RATE_LIMIT_RPS":   "0.01",
		"AUTH_RATE_LIMIT_BURST": "2",
	})

	for i := 0; i < 2; i++ {
		rec := srv.do(http.MethodPost, "/api/v1/auth/signin", `{"email":"x@example.com","password":"whatever1"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := srv.do(http.MethodPost, "/api/v1/auth/signin", `{"email":"x@example.com","password":"whatever1"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = srv.do(http.MethodGet, "/api/v1/auth/session", "")
	assert.Equal(t, http.StatusOK, rec.Code, "session endpoint is not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(http.MethodGet, "/__protected__/dashboard", "")

	rec := srv.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wanderplan_gate_decisions_total")
}

func TestCORSPreflightOnAPI(t *testing.T) {
	srv := newTestServer(t, map[string]string{"CORS_ORIGINS": "https://app.wanderplan.test"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/signin", nil)
	req.Header.Set("Origin", "https://app.wanderplan.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.wanderplan.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
