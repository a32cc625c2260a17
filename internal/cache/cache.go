package cache

import (
	"context"
	"errors"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, owner string) (*domain.Cart, error)
	Set(ctx context.Context, owner string, cart *domain.Cart) error
	Delete(ctx context.Context, owner string) error
}

// IdempotencyStore remembers which order a checkout Idempotency-Key produced.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key, orderID string) error
	Lookup(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
