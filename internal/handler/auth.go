package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/cookie"
	"github.com/wanderplan/wanderplan-go/internal/middleware"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service    *service.AuthService
	codec      *cookie.Codec
	signInPath string
	landing    string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, codec *cookie.Codec, signInPath, landing string) *AuthHandler {
	return &AuthHandler{
		service:    svc,
		codec:      codec,
		signInPath: signInPath,
		landing:    landing,
	}
}

// HandleSignIn handles POST /api/v1/auth/signin requests.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.replaceSession(r)
	http.SetCookie(w, h.codec.Encode(res.Session.ID, res.TTL))
	writeJSON(w, http.StatusOK, model.AuthResponse{
		Success:  true,
		User:     res.Identity,
		Redirect: safeRedirectPath(r.URL.Query().Get("callbackUrl"), h.landing),
	})
}

// HandleSignUp handles POST /api/v1/auth/signup requests.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.replaceSession(r)
	http.SetCookie(w, h.codec.Encode(res.Session.ID, res.TTL))
	writeJSON(w, http.StatusCreated, model.AuthResponse{
		Success:  true,
		User:     res.Identity,
		Redirect: h.landing,
	})
}

// replaceSession drops the session a client signs in over, if any.
func (h *AuthHandler) replaceSession(r *http.Request) {
	if old, ok := h.codec.FromRequest(r); ok {
		h.signOut(r, old)
	}
}

// HandleSignOut handles POST /api/v1/auth/signout requests. It succeeds
// whether or not a session exists.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.codec.FromRequest(r); ok {
		h.signOut(r, id)
	}
	http.SetCookie(w, h.codec.Clear())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": h.signInPath})
}

// HandleSignOutPage handles GET /auth/signout by clearing the session and
// sending the browser to the sign-in page.
func (h *AuthHandler) HandleSignOutPage(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.codec.FromRequest(r); ok {
		h.signOut(r, id)
	}
	http.SetCookie(w, h.codec.Clear())
	http.Redirect(w, r, h.signInPath, http.StatusSeeOther)
}

// signOut deletes a session on a best-effort basis; the cookie is cleared
// either way.
func (h *AuthHandler) signOut(r *http.Request, sessionID string) {
	if err := h.service.SignOut(r.Context(), sessionID); err != nil {
		slog.WarnContext(r.Context(), "failed to delete session on sign out", "error", err)
	}
}

// HandleSession handles GET /api/v1/auth/session requests.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, model.SessionInfoResponse{})
		return
	}

	resp := model.SessionInfoResponse{User: id, IsAuthenticated: true}
	if exp, ok := middleware.SessionExpiresAtFromContext(r.Context()); ok {
		exp = exp.UTC().Truncate(time.Second)
		resp.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/v1/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	resp, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleChangePassword handles POST /api/v1/auth/password requests.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}
	sessionID, _ := middleware.SessionIDFromContext(r.Context())

	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, sessionID, req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandlePasswordResetRequest handles POST /api/v1/auth/password-reset/request.
// The response does not reveal whether the address has an account.
func (h *AuthHandler) HandlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": "if an account exists for that address, a reset link has been sent",
	})
}

// HandlePasswordResetConfirm handles POST /api/v1/auth/password-reset/confirm.
func (h *AuthHandler) HandlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "redirect": h.signInPath})
}

// HandleVerifyEmail handles POST /api/v1/auth/verify-email/confirm requests.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleResendVerification handles POST /api/v1/auth/verify-email/resend.
func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	if err := h.service.ResendVerification(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}
