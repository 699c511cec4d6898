package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wanderplan/wanderplan-go/internal/model"
)

// UserLookup resolves the owner of a session.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RedisSessionRepository stores sessions as JSON under session:<id> with a
// TTL matching their expiry, plus a per-user set used for revocation.
type RedisSessionRepository struct {
	client      redis.UniversalClient
	users       UserLookup
	prefix      string
	indexPrefix string
}

// NewRedisSessionRepository creates a Redis-backed session repository.
func NewRedisSessionRepository(client redis.UniversalClient, users UserLookup) *RedisSessionRepository {
	return &RedisSessionRepository{
		client:      client,
		users:       users,
		prefix:      "session:",
		indexPrefix: "user_sessions:",
	}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *RedisSessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisSessionRepository) indexKey(userID int64) string {
	return r.indexPrefix + strconv.FormatInt(userID, 10)
}

// Create stores sess with a TTL equal to its remaining lifetime.
func (r *RedisSessionRepository) Create(ctx context.Context, sess *model.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	index := r.indexKey(sess.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, index, sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}

	// The index lives as long as the longest session it references.
	current, err := r.client.TTL(ctx, index).Result()
	if err == nil && current < ttl {
		r.client.Expire(ctx, index, ttl)
	}
	return nil
}

// GetWithUser loads the session and resolves its owner.
func (r *RedisSessionRepository) GetWithUser(ctx context.Context, id string) (*model.Session, *model.User, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("redis get: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil, fmt.Errorf("unmarshal session: %w", err)
	}

	user, err := r.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, err
	}

	return &sess, user, nil
}

// Delete removes one session. Missing keys are ignored.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis get: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err == nil {
		r.client.SRem(ctx, r.indexKey(sess.UserID), id)
	}

	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteByUser removes every session of userID except keepID.
func (r *RedisSessionRepository) DeleteByUser(ctx context.Context, userID int64, keepID string) (int64, error) {
	index := r.indexKey(userID)

	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}

	var keys []string
	var members []any
	for _, id := range ids {
		if id == keepID {
			continue
		}
		keys = append(keys, r.key(id))
		members = append(members, id)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, keys...)
		pipe.SRem(ctx, index, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis revoke sessions: %w", err)
	}
	return deleted.Val(), nil
}

// DeleteExpired is a no-op: Redis expires session keys on its own.
func (r *RedisSessionRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
