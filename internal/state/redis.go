package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "slotbot:session:"

// RedisStore keeps sessions as JSON strings in Redis with an expiry equal to
// the idle TTL.
type RedisStore struct {
	client    redis.UniversalClient
	ttl       time.Duration
	prefix    string
	now       func() time.Time
	ownClient bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithRedisClock replaces time.Now for UpdatedAt stamps.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *RedisStore) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRedisStore wraps an existing client. Close does not close the client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DialRedis parses a redis:// URL, connects and pings the server.
func DialRedis(ctx context.Context, url string, ttl time.Duration, opts ...RedisOption) (*RedisStore, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", options.Addr, err)
	}

	r := NewRedisStore(client, ttl, opts...)
	r.ownClient = true
	return r, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Get returns the session or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Put stores the session and resets its expiry.
func (r *RedisStore) Put(ctx context.Context, s Session) error {
	if s.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	s.UpdatedAt = r.now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count scans the key prefix and returns the number of sessions.
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Close closes the client when the store created it.
func (r *RedisStore) Close() error {
	if r.ownClient {
		return r.client.Close()
	}
	return nil
}
