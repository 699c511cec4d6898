package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/crypto"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/repository"
)

var testStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// testHasher keeps scrypt cheap; production parameters are covered in the
// crypto package.
func testHasher() *crypto.Hasher {
	return crypto.NewHasher(crypto.ScryptParams{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 64})
}

type recordingNotifier struct {
	mu            sync.Mutex
	resets        map[string]string
	verifications map[string]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{resets: map[string]string{}, verifications: map[string]string{}}
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets[email] = token
	return nil
}

func (n *recordingNotifier) SendVerification(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications[email] = token
	return nil
}

type testEnv struct {
	store    *repository.MemoryStore
	users    *repository.MemoryUserRepository
	clock    *clock.Fixed
	hasher   *crypto.Hasher
	notifier *recordingNotifier
	sessions *SessionService
	auth     *AuthService
	admin    *AdminService
}

func newTestEnv(t *testing.T, mutate ...func(o *AuthOptions)) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	clk := clock.NewFixed(testStart)
	hasher := testHasher()
	notifier := newRecordingNotifier()
	sessions := NewSessionService(store.Sessions(), clk, 0, nil)

	opts := AuthOptions{
		SessionTTL:      30 * 24 * time.Hour,
		ShortSessionTTL: 24 * time.Hour,
		LockoutWindow:   5 * time.Minute,
		ResetTokenTTL:   time.Hour,
		ResetSecret:     "test-secret",
		Clock:           clk,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	return &testEnv{
		store:    store,
		users:    store.Users(),
		clock:    clk,
		hasher:   hasher,
		notifier: notifier,
		sessions: sessions,
		auth:     NewAuthService(store.Users(), sessions, hasher, notifier, opts),
		admin:    NewAdminService(store.Users(), sessions, hasher),
	}
}

// seedUser stores an active account with the given password.
func (e *testEnv) seedUser(t *testing.T, email, username, password string) *model.User {
	t.Helper()

	hash, salt, err := e.hasher.Hash(password)
	require.NoError(t, err)

	u := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hash,
		Salt:         &salt,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) reload(t *testing.T, id int64) *model.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func boolPtr(b bool) *bool { return &b }

// mockSessionRepo injects backend failures.
type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, sess *model.Session) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *mockSessionRepo) GetWithUser(ctx context.Context, id string) (*model.Session, *model.User, error) {
	args := m.Called(ctx, id)
	sess, _ := args.Get(0).(*model.Session)
	user, _ := args.Get(1).(*model.User)
	return sess, user, args.Error(2)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepo) DeleteByUser(ctx context.Context, userID int64, keepID string) (int64, error) {
	args := m.Called(ctx, userID, keepID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

var (
	anyCtx     = mock.Anything
	anySession = mock.AnythingOfType("*model.Session")
)
