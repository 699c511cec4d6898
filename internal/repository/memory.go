package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

// MemoryStore keeps users and sessions in process memory. It backs
// DATABASE_DRIVER=memory for local runs and the service and handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*model.User
	sessions map[string]*model.Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*model.User),
		sessions: make(map[string]*model.Session),
	}
}

// Users returns the user repository view of the store.
func (m *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: m}
}

// Sessions returns the session repository view of the store.
func (m *MemoryStore) Sessions() *MemorySessionRepository {
	return &MemorySessionRepository{store: m}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// MemoryUserRepository is the users table of a MemoryStore.
type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return ErrDuplicateUsername
		}
	}

	m.nextID++
	now := time.Now().UTC()
	user.ID = m.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryUserRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) GetByVerificationToken(_ context.Context, token string) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (r *MemoryUserRepository) List(_ context.Context, limit, offset int) ([]*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0, len(r.store.users))
	for id := range r.store.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*model.User
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, cloneUser(r.store.users[ids[i]]))
	}
	return out, nil
}

// update applies fn to a stored user. Missing users are ignored, matching an
// UPDATE that affects no rows.
func (r *MemoryUserRepository) update(id int64, fn func(u *model.User)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if u, ok := r.store.users[id]; ok {
		fn(u)
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *MemoryUserRepository) RecordFailedLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *model.User) { u.LastFailedLogin = &at })
}

func (r *MemoryUserRepository) ClearFailedLogin(_ context.Context, id int64) error {
	return r.update(id, func(u *model.User) { u.LastFailedLogin = nil })
}

func (r *MemoryUserRepository) RecordLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *model.User) {
		u.LastLogin = &at
		u.LastFailedLogin = nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id int64, hash, salt string) error {
	return r.update(id, func(u *model.User) {
		u.PasswordHash = &hash
		u.Salt = &salt
		u.LastFailedLogin = nil
	})
}

func (r *MemoryUserRepository) SetVerificationToken(_ context.Context, id int64, token string) error {
	return r.update(id, func(u *model.User) { u.VerificationToken = &token })
}

func (r *MemoryUserRepository) MarkEmailVerified(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *model.User) {
		u.EmailVerified = &at
		u.VerificationToken = nil
	})
}

func (r *MemoryUserRepository) SetActive(_ context.Context, id int64, active bool) error {
	return r.update(id, func(u *model.User) { u.IsActive = active })
}

func (r *MemoryUserRepository) SetRole(_ context.Context, id int64, role string) error {
	return r.update(id, func(u *model.User) { u.Role = role })
}

// MemorySessionRepository is the sessions table of a MemoryStore.
type MemorySessionRepository struct {
	store *MemoryStore
}

func (r *MemorySessionRepository) Create(_ context.Context, sess *model.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *sess
	r.store.sessions[sess.ID] = &c
	return nil
}

func (r *MemorySessionRepository) GetWithUser(_ context.Context, id string) (*model.Session, *model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sess, ok := r.store.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	u, ok := r.store.users[sess.UserID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	c := *sess
	return &c, cloneUser(u), nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.sessions, id)
	return nil
}

func (r *MemorySessionRepository) DeleteByUser(_ context.Context, userID int64, keepID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, s := range r.store.sessions {
		if s.UserID == userID && id != keepID {
			delete(r.store.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, s := range r.store.sessions {
		if !s.ExpiresAt.After(before) {
			delete(r.store.sessions, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored sessions, expired ones included.
func (r *MemorySessionRepository) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.sessions)
}
