package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/cartwheel/storefront/internal/domain/cart"
)

var _ CartCache = (*RedisCartCache)(nil)

// tombstone marks a freshly invalidated entry. While it occupies the key,
// SetNX cannot install a cart that was read from the store before the
// invalidating write, and Get treats the key as a miss.
const tombstone = "__invalidated__"

// RedisCartCache implements CartCache on Redis with a jittered TTL so a burst
// of carts written together does not expire together.
type RedisCartCache struct {
	client       *redis.Client
	baseTTL      time.Duration
	tombstoneTTL time.Duration
}

// NewRedisCartCache returns a RedisCartCache using the given client.
func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{
		client:       client,
		baseTTL:      15 * time.Minute,
		tombstoneTTL: 5 * time.Second,
	}
}

// Get returns the cached cart for customerID, or ErrMiss. A tombstoned key
// reads as a miss so callers fall through to the store.
func (r *RedisCartCache) Get(ctx context.Context, customerID string) (*cart.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	if string(data) == tombstone {
		return nil, ErrMiss
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cached cart: %w", err)
	}
	return &c, nil
}

// Set stores the cart with the jittered TTL. The write is NX: it only fills
// an empty slot, so it can neither clobber a newer entry nor overwrite a
// tombstone left by a concurrent invalidation.
func (r *RedisCartCache) Set(ctx context.Context, customerID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.IntN(300))*time.Second
	if err := r.client.SetNX(ctx, cacheKey(customerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete invalidates the cached cart by replacing it with a short-lived
// tombstone. Reads during the tombstone window go to the store; once it
// expires, read-through caching resumes.
func (r *RedisCartCache) Delete(ctx context.Context, customerID string) error {
	if err := r.client.Set(ctx, cacheKey(customerID), tombstone, r.tombstoneTTL).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func cacheKey(customerID string) string {
	return "cart:" + customerID
}
