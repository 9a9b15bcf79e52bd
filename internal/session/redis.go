package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get always reads from Redis. Manager.Update relies on it to see the last
// Save.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	return r.fetch(ctx, id)
}

// Peek is Get for read-only callers: concurrent page loads for one shopper
// share a single round trip. The shared read is detached from the caller's
// cancellation so one aborted request can't fail the others.
func (r *RedisStore) Peek(ctx context.Context, id string) (*Session, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(id, func() (any, error) {
		return r.fetch(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session).Clone(), nil
}

func (r *RedisStore) fetch(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func redisKey(id string) string {
	return "session:" + id
}
