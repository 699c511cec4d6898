package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderplan/wanderplan-go/internal/model"
)

// setupTestRedis connects to REDIS_ADDR and skips the test when it is unset
// or unreachable. Database 15 is flushed before and after each test.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestRedisSessionRepository(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	store := NewMemoryStore()
	u := &model.User{Email: "a@x.com", Username: "aaa", IsActive: true}
	require.NoError(t, store.Users().Create(ctx, u))

	repo := NewRedisSessionRepository(client, store.Users())
	now := time.Now().UTC()

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.Create(ctx, &model.Session{ID: id, UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	}

	ttl, err := client.TTL(ctx, "session:r1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	sess, owner, err := repo.GetWithUser(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", sess.ID)
	assert.Equal(t, u.ID, owner.ID)

	n, err := repo.DeleteByUser(ctx, u.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, _, err = repo.GetWithUser(ctx, "r2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, repo.Delete(ctx, "r1"))
	require.NoError(t, repo.Delete(ctx, "r1"))
	_, _, err = repo.GetWithUser(ctx, "r1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionRepositoryRejectsExpired(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewRedisSessionRepository(client, NewMemoryStore().Users())

	err := repo.Create(context.Background(), &model.Session{ID: "x", UserID: 1, ExpiresAt: time.Now().Add(-time.Second)})
	assert.Error(t, err)
}
