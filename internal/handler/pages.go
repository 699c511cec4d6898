package handler

import (
	"net/http"

	"github.com/wanderplan/wanderplan-go/internal/middleware"
)

// PageHandler serves the page descriptors the front end renders for the
// auth pages and the signed-in landing page.
type PageHandler struct {
	landing string
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(landing string) *PageHandler {
	return &PageHandler{landing: landing}
}

type pageResponse struct {
	Page        string `json:"page"`
	CallbackURL string `json:"callbackUrl"`
	Error       string `json:"error,omitempty"`
}

// HandleSignInPage handles GET /auth/signin.
func (h *PageHandler) HandleSignInPage(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, "signin")
}

// HandleSignUpPage handles GET /auth/signup.
func (h *PageHandler) HandleSignUpPage(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, "signup")
}

func (h *PageHandler) authPage(w http.ResponseWriter, r *http.Request, page string) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, pageResponse{
		Page:        page,
		CallbackURL: safeRedirectPath(q.Get("callbackUrl"), h.landing),
		Error:       q.Get("error"),
	})
}

// HandleAuthError handles GET /auth/error.
func (h *PageHandler) HandleAuthError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pageResponse{
		Page:        "error",
		CallbackURL: h.landing,
		Error:       r.URL.Query().Get("error"),
	})
}

// HandleHome handles GET /. Signed-in visitors get their identity back.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"page": "home"}
	if id, ok := middleware.IdentityFromContext(r.Context()); ok {
		resp["user"] = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDashboard handles GET /__protected__/dashboard.
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": "dashboard", "user": id})
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
