package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wanderplan/wanderplan-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

// decodeJSON reads a JSON body into v and writes the error response itself
// when it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeServiceError maps a service error to its status code and client
// message. Anything unrecognised is logged and reported as a 500 without
// detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		limited  *service.RateLimitedError
		conflict *service.ConflictError
		invalid  *service.ValidationError
	)

	switch {
	case errors.As(err, &limited):
		secs := limited.RetryAfterSeconds()
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		resp := errorResponse(limited.Error())
		resp["retryAfter"] = secs
		writeJSON(w, http.StatusTooManyRequests, resp)
	case errors.As(err, &conflict):
		resp := errorResponse(firstConflict(conflict))
		resp["fields"] = conflict.Fields
		writeJSON(w, http.StatusConflict, resp)
	case errors.As(err, &invalid):
		resp := errorResponse(invalid.Message)
		if invalid.Field != "" {
			resp["field"] = invalid.Field
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrInvalidResetToken), errors.Is(err, service.ErrInvalidVerificationToken),
		errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidCurrentPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAccountDisabled), errors.Is(err, service.ErrNoPasswordSet):
		writeJSON(w, http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrAlreadyVerified):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

func firstConflict(c *service.ConflictError) string {
	if len(c.Fields) == 0 {
		return c.Error()
	}
	if c.Fields[0] == service.FieldEmail {
		return service.ErrEmailTaken.Error()
	}
	return service.ErrUsernameTaken.Error()
}

// safeRedirectPath accepts only same-origin absolute paths.
func safeRedirectPath(candidate, fallback string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return fallback
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	return candidate
}
