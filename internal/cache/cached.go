package cache

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cartwheel/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository decorates a cart.Repository with a read-through CartCache.
// Reads are served from cache when possible; every mutation writes to the
// store and then invalidates. Cache failures degrade to the store, they never
// fail the request.
type CartRepository struct {
	store cart.Repository
	cache CartCache
}

// NewCartRepository wraps store with cache.
func NewCartRepository(store cart.Repository, cache CartCache) *CartRepository {
	return &CartRepository{
		store: store,
		cache: cache,
	}
}

// Get serves the cart from cache when present, falling back to the store and
// populating the cache on a miss.
func (r *CartRepository) Get(ctx context.Context, customerID string) (*cart.Cart, error) {
	c, err := r.cache.Get(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrMiss) {
		zctx.From(ctx).Debug("Cart cache read failed", zap.Error(err))
	}

	c, err = r.store.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, customerID, c); err != nil {
		zctx.From(ctx).Debug("Cart cache write failed", zap.Error(err))
	}
	return c, nil
}

// AddLine writes through to the store and invalidates.
func (r *CartRepository) AddLine(ctx context.Context, customerID string, line cart.Line) error {
	if err := r.store.AddLine(ctx, customerID, line); err != nil {
		return err
	}
	r.invalidate(ctx, customerID)
	return nil
}

// RemoveLine writes through to the store and invalidates.
func (r *CartRepository) RemoveLine(ctx context.Context, customerID, sku string) error {
	if err := r.store.RemoveLine(ctx, customerID, sku); err != nil {
		return err
	}
	r.invalidate(ctx, customerID)
	return nil
}

// Clear writes through to the store and invalidates.
func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	if err := r.store.Clear(ctx, customerID); err != nil {
		return err
	}
	r.invalidate(ctx, customerID)
	return nil
}

func (r *CartRepository) invalidate(ctx context.Context, customerID string) {
	if err := r.cache.Delete(ctx, customerID); err != nil {
		// Stale entries expire on TTL; log and move on.
		zctx.From(ctx).Debug("Cart cache invalidation failed", zap.Error(err))
	}
}
