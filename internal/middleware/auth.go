package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	sessionIDKey contextKey = "sessionID"
	expiresAtKey contextKey = "sessionExpiresAt"
	requestIDKey contextKey = "requestID"
)

// WithIdentity attaches the authenticated identity and its session to ctx.
func WithIdentity(ctx context.Context, id *model.Identity, sessionID string, expiresAt time.Time) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return context.WithValue(ctx, expiresAtKey, expiresAt)
}

// IdentityFromContext returns the identity attached by the gate.
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	return id, ok && id != nil
}

// SessionIDFromContext returns the session id of the authenticated request.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// SessionExpiresAtFromContext returns the expiry of the authenticated session.
func SessionExpiresAtFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(expiresAtKey).(time.Time)
	return t, ok && !t.IsZero()
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return 0, false
	}
	return id.ID, true
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
