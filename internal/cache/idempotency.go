package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// RedisIdempotency keeps checkout keys for a day. A reserved key holds a
// pending marker until the order id replaces it.
type RedisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client, ttl: 24 * time.Hour}
}

// Reserve claims key for a new checkout. It reports false when the key is
// already claimed or completed.
func (r *RedisIdempotency) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKey(key), pendingMarker, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (r *RedisIdempotency) Complete(ctx context.Context, key, orderID string) error {
	if err := r.client.Set(ctx, idempotencyKey(key), orderID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Lookup returns the order id recorded for key, ErrCacheMiss when the key is
// unknown, or an empty string while the checkout is still in flight.
func (r *RedisIdempotency) Lookup(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	if val == pendingMarker {
		return "", nil
	}
	return val, nil
}

func (r *RedisIdempotency) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, idempotencyKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("checkout:idem:%s", key)
}
