package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

// DefaultSessionTTL is used when Create is called without a lifetime.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionService issues, validates and revokes server-side sessions.
type SessionService struct {
	repo       SessionRepository
	clock      clock.Clock
	defaultTTL time.Duration
	metrics    *metrics.Metrics
}

// NewSessionService creates a new SessionService. A nil clock uses the wall
// clock and a non-positive defaultTTL uses DefaultSessionTTL.
func NewSessionService(repo SessionRepository, clk clock.Clock, defaultTTL time.Duration, m *metrics.Metrics) *SessionService {
	if clk == nil {
		clk = clock.Real{}
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultSessionTTL
	}
	return &SessionService{repo: repo, clock: clk, defaultTTL: defaultTTL, metrics: m}
}

// Create mints a session for userID that expires after ttl.
func (s *SessionService) Create(ctx context.Context, userID int64, ttl time.Duration) (*model.Session, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	id, err := crypto.GenerateToken(crypto.SessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sess := &model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, persistenceError("create session", err)
	}

	s.metrics.SessionCreated()
	return sess, nil
}

// Get returns the session and its owner, or nil when the id is empty or
// unknown, the session has expired, or the owner is gone or deactivated.
// Expired rows are left for Prune.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*model.Session, *model.User, error) {
	if sessionID == "" {
		return nil, nil, nil
	}

	sess, user, err := s.repo.GetWithUser(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, nil
		}
		return nil, nil, persistenceError("get session", err)
	}

	if sess.ExpiredAt(s.clock.Now()) || user == nil || !user.IsActive {
		return nil, nil, nil
	}

	return sess, user, nil
}

// Delete removes a session. Unknown and empty ids are not an error.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return persistenceError("delete session", err)
	}
	return nil
}

// RevokeOthers deletes every session of userID except keepID.
func (s *SessionService) RevokeOthers(ctx context.Context, userID int64, keepID string) (int64, error) {
	n, err := s.repo.DeleteByUser(ctx, userID, keepID)
	if err != nil {
		return 0, persistenceError("revoke sessions", err)
	}
	return n, nil
}

// RevokeAll deletes every session of userID.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	return s.RevokeOthers(ctx, userID, "")
}

// Prune deletes expired sessions.
func (s *SessionService) Prune(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, persistenceError("prune sessions", err)
	}
	s.metrics.SessionsPruned(n)
	return n, nil
}

// RunSweeper prunes expired sessions every interval until ctx is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("session sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			n, err := s.Prune(ctx)
			if err != nil {
				slog.Error("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions pruned", "count", n)
			}
		}
	}
}
