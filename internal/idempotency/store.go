package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "storefront:idempotency:"
	pendingMarker = "-"
	maxPendingTTL = time.Minute
)

// commander is the subset of the redis client the store uses.
type commander interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps idempotency keys in redis. A reservation holds a short
// lease until Complete replaces it with the order id for the full TTL.
type RedisStore struct {
	client     commander
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewRedisStore constructs a store over client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return newRedisStore(client, ttl)
}

func newRedisStore(client commander, ttl time.Duration) *RedisStore {
	pending := ttl
	if pending > maxPendingTTL {
		pending = maxPendingTTL
	}
	return &RedisStore{client: client, ttl: ttl, pendingTTL: pending}
}

// Reserve claims key. When the key exists it returns the stored order id,
// or an empty id while the first request is still running.
func (s *RedisStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if value == pendingMarker {
		return "", false, nil
	}
	return value, false, nil
}

// Complete remembers orderID under key for the configured TTL.
func (s *RedisStore) Complete(ctx context.Context, key, orderID string) error {
	return s.client.Set(ctx, keyPrefix+key, orderID, s.ttl).Err()
}

// Release drops a reservation so the client may retry.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NoopStore disables idempotency: every key is freshly reserved.
type NoopStore struct{}

// Reserve always reserves.
func (NoopStore) Reserve(context.Context, string) (string, bool, error) { return "", true, nil }

// Complete does nothing.
func (NoopStore) Complete(context.Context, string, string) error { return nil }

// Release does nothing.
func (NoopStore) Release(context.Context, string) error { return nil }
