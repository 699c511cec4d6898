// Package notify delivers account emails. The only implementation logs the
// message; an SMTP or API-backed Notifier can replace it without touching
// the services.
package notify

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// Notifier delivers account links to a user.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
	SendVerification(ctx context.Context, email, token string) error
}

// LogNotifier writes the links to the structured log.
type LogNotifier struct {
	baseURL string
	logger  *slog.Logger
}

// NewLogNotifier creates a LogNotifier building links under baseURL.
func NewLogNotifier(baseURL string, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	n.logger.InfoContext(ctx, "password reset requested",
		"to", email,
		"link", n.link("/auth/reset-password", token),
	)
	return nil
}

func (n *LogNotifier) SendVerification(ctx context.Context, email, token string) error {
	n.logger.InfoContext(ctx, "email verification requested",
		"to", email,
		"link", n.link("/auth/verify-email", token),
	)
	return nil
}

func (n *LogNotifier) link(path, token string) string {
	return n.baseURL + path + "?token=" + url.QueryEscape(token)
}
