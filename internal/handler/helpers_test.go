package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/middleware"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/notify"
	"github.com/wanderplan/wanderplan-go/internal/repository"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

type nopNotifier struct{}

func (nopNotifier) SendPasswordReset(context.Context, string, string) error { return nil }
func (nopNotifier) SendVerification(context.Context, string, string) error  { return nil }

var _ notify.Notifier = nopNotifier{}

type testEnv struct {
	store    *repository.MemoryStore
	clock    *clock.Fixed
	hasher   *crypto.Hasher
	sessions *service.SessionService
	codec    *cookie.Codec
	auth     *AuthHandler
	admin    *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	clk := clock.NewFixed(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	hasher := crypto.NewHasher(crypto.ScryptParams{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 64})
	sessions := service.NewSessionService(store.Sessions(), clk, 0, nil)
	authSvc := service.NewAuthService(store.Users(), sessions, hasher, nopNotifier{}, service.AuthOptions{
		ResetSecret: "test-secret",
		Clock:       clk,
	})
	codec := cookie.NewCodec(cookie.Options{})

	return &testEnv{
		store:    store,
		clock:    clk,
		hasher:   hasher,
		sessions: sessions,
		codec:    codec,
		auth:     NewAuthHandler(authSvc, codec, "/auth/signin", "/__protected__/dashboard"),
		admin:    NewAdminHandler(service.NewAdminService(store.Users(), sessions, hasher)),
	}
}

func (e *testEnv) seedUser(t *testing.T, email, username, password, role string) *model.User {
	t.Helper()

	hash, salt, err := e.hasher.Hash(password)
	require.NoError(t, err)

	u := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		Salt:         &salt,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

// signedIn returns ctx as the gate would leave it for u.
func (e *testEnv) signedIn(t *testing.T, ctx context.Context, u *model.User) context.Context {
	t.Helper()
	sess, err := e.sessions.Create(ctx, u.ID, 0)
	require.NoError(t, err)
	return middleware.WithIdentity(ctx, u.Identity(), sess.ID, sess.ExpiresAt)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
