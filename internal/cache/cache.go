// Package cache provides a read-through cache for carts in front of the
// durable store. The cache is strictly an accelerator: every mutation goes to
// the store first and then drops the cached entry.
package cache

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/cartwheel/storefront/internal/domain/cart"
)

// ErrMiss is returned by CartCache.Get when no entry exists for the customer.
var ErrMiss = errors.New("cache miss")

// CartCache stores serialized carts keyed by customer id.
//
// The read-through decorator races against invalidators: a Get can load rows
// from the store, lose the CPU, and try to cache them after a mutation
// already invalidated the entry. Implementations must therefore make
// invalidation sticky: for a grace period after Delete, Set must not install
// an entry. Otherwise a cart cleared by checkout could reappear from a stale
// read for the full entry TTL.
type CartCache interface {
	Get(ctx context.Context, customerID string) (*cart.Cart, error)

	// Set installs the cart only if no entry and no pending invalidation
	// exists; losing that race is not an error.
	Set(ctx context.Context, customerID string, c *cart.Cart) error

	// Delete invalidates the entry and suppresses Set for a grace period.
	Delete(ctx context.Context, customerID string) error
}
