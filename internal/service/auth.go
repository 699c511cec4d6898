package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/metrics"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/notify"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

const tracerName = "github.com/wanderplan/wanderplan-go/internal/service"

// AuthOptions tunes AuthService.
type AuthOptions struct {
	SessionTTL          time.Duration
	ShortSessionTTL     time.Duration
	LockoutWindow       time.Duration
	ResetTokenTTL       time.Duration
	ResetSecret         string
	LegacyHashMigration bool
	Clock               clock.Clock
	Metrics             *metrics.Metrics
}

func (o *AuthOptions) defaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.ShortSessionTTL <= 0 {
		o.ShortSessionTTL = 24 * time.Hour
	}
	if o.LockoutWindow <= 0 {
		o.LockoutWindow = 5 * time.Minute
	}
	if o.ResetTokenTTL <= 0 {
		o.ResetTokenTTL = time.Hour
	}
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
}

// SignInResult is a fresh session and the identity it belongs to.
type SignInResult struct {
	Identity *model.Identity
	Session  *model.Session
	TTL      time.Duration
}

// AuthService handles authentication business logic.
type AuthService struct {
	users    UserRepository
	sessions *SessionService
	hasher   *crypto.Hasher
	notifier notify.Notifier
	opts     AuthOptions
	tracer   trace.Tracer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, sessions *SessionService, hasher *crypto.Hasher, notifier notify.Notifier, opts AuthOptions) *AuthService {
	opts.defaults()
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		notifier: notifier,
		opts:     opts,
		tracer:   otel.Tracer(tracerName),
	}
}

// SignIn checks credentials and issues a session. Each step gates the next:
// lookup, lockout, account state, password, session.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (res *SignInResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.SignIn")
	defer func() {
		result := signInResult(err)
		s.opts.Metrics.SignIn(result)
		span.SetAttributes(attribute.String("auth.result", result))
		if result == "error" {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistenceError("lookup user", err)
	}
	span.SetAttributes(attribute.Int64("user.id", user.ID))

	now := s.opts.Clock.Now()
	if user.LastFailedLogin != nil {
		elapsed := now.Sub(*user.LastFailedLogin)
		if elapsed < s.opts.LockoutWindow {
			return nil, &RateLimitedError{RetryAfter: s.opts.LockoutWindow - elapsed}
		}
		if err := s.users.ClearFailedLogin(ctx, user.ID); err != nil {
			slog.WarnContext(ctx, "failed to clear stale lockout marker", "user_id", user.ID, "error", err)
		}
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if !user.HasPassword() {
		return nil, ErrNoPasswordSet
	}

	match, legacy := s.verify(req.Password, *user.PasswordHash, *user.Salt)
	if !match {
		if err := s.users.RecordFailedLogin(ctx, user.ID, now); err != nil {
			return nil, persistenceError("record failed login", err)
		}
		return nil, ErrInvalidCredentials
	}

	if legacy {
		s.upgradeHash(ctx, user.ID, req.Password)
	}

	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, persistenceError("record login", err)
	}
	user.LastLogin = &now
	user.LastFailedLogin = nil

	return s.issueSession(ctx, user, req.Remember())
}

// verify checks password against the stored credential. legacy reports a
// match against a pre-scrypt hash.
func (s *AuthService) verify(password, hash, salt string) (match, legacy bool) {
	if s.opts.LegacyHashMigration && crypto.IsLegacyHash(hash) {
		ok := crypto.VerifyLegacy(password, hash, salt)
		return ok, ok
	}
	return s.hasher.Verify(password, hash, salt), false
}

// upgradeHash re-hashes a legacy credential with scrypt. Failure leaves the
// legacy hash in place for the next sign-in.
func (s *AuthService) upgradeHash(ctx context.Context, userID int64, password string) {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "legacy hash upgrade failed", "user_id", userID, "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, salt); err != nil {
		slog.ErrorContext(ctx, "legacy hash upgrade failed", "user_id", userID, "error", err)
		return
	}
	slog.InfoContext(ctx, "legacy password hash upgraded", "user_id", userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *model.User, remember bool) (*SignInResult, error) {
	ttl := s.opts.ShortSessionTTL
	if remember {
		ttl = s.opts.SessionTTL
	}

	sess, err := s.sessions.Create(ctx, user.ID, ttl)
	if err != nil {
		return nil, err
	}

	return &SignInResult{Identity: user.Identity(), Session: sess, TTL: ttl}, nil
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*SignInResult, error) {
	email := NormalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	fullName := strings.TrimSpace(req.FullName)

	if err := validateRegistration(email, username, fullName, req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	token, err := crypto.GenerateToken(crypto.VerificationTokenBytes)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:             email,
		Username:          username,
		PasswordHash:      &hash,
		Salt:              &salt,
		Role:              model.RoleUser,
		IsActive:          true,
		VerificationToken: &token,
	}
	if fullName != "" {
		user.DisplayName = &fullName
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, &ConflictError{Fields: []string{FieldEmail}}
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, &ConflictError{Fields: []string{FieldUsername}}
		}
		return nil, persistenceError("create user", err)
	}

	s.opts.Metrics.SignUp()
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	if err := s.notifier.SendVerification(ctx, user.Email, token); err != nil {
		slog.WarnContext(ctx, "verification email not sent", "user_id", user.ID, "error", err)
	}

	return s.issueSession(ctx, user, true)
}

// checkAvailable reports every unique field already in use, email first.
func (s *AuthService) checkAvailable(ctx context.Context, email, username string) error {
	var taken []string

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		taken = append(taken, FieldEmail)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return persistenceError("check email", err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		taken = append(taken, FieldUsername)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return persistenceError("check username", err)
	}

	if len(taken) > 0 {
		return &ConflictError{Fields: taken}
	}
	return nil
}

// SignOut deletes the session. It is safe to call with an unknown or empty id.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// CurrentUser returns the identity of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

func (s *AuthService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("get user", err)
	}
	return user, nil
}

func signInResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrPasswordRequired):
		return "invalid_request"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrRateLimited):
		return "locked_out"
	case errors.Is(err, ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, ErrNoPasswordSet):
		return "no_password"
	default:
		return "error"
	}
}
