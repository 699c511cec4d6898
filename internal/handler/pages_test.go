package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

func TestAuthPageDescriptor(t *testing.T) {
	h := NewPageHandler("/__protected__/dashboard")

	rec := httptest.NewRecorder()
	h.HandleSignInPage(rec, httptest.NewRequest(http.MethodGet, "/auth/signin?callbackUrl=%2F__protected__%2Ftrips&error=session_expired", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "signin", body["page"])
	assert.Equal(t, "/__protected__/trips", body["callbackUrl"])
	assert.Equal(t, "session_expired", body["error"])

	rec = httptest.NewRecorder()
	h.HandleSignUpPage(rec, httptest.NewRequest(http.MethodGet, "/auth/signup?callbackUrl=https%3A%2F%2Fevil.example.com", nil))
	body = decodeBody(t, rec)
	assert.Equal(t, "signup", body["page"])
	assert.Equal(t, "/__protected__/dashboard", body["callbackUrl"])
	assert.NotContains(t, body, "error")
}

func TestDashboardRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com", "alice", "Secret123!", model.RoleUser)
	h := NewPageHandler("/__protected__/dashboard")

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/__protected__/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/__protected__/dashboard", nil)
	req = req.WithContext(env.signedIn(t, req.Context(), alice))
	rec = httptest.NewRecorder()
	h.HandleDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
