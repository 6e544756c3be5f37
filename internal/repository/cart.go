package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cartwheel/storefront/internal/domain/cart"
)

const (
	getCartLinesSQL = `SELECT sku, name, unit_price, quantity
		FROM cart_lines WHERE customer_id = $1 ORDER BY position`

	ensureCartSQL = `INSERT INTO carts (customer_id) VALUES ($1)
		ON CONFLICT (customer_id) DO UPDATE SET updated_at = now()`

	// The conflict branch is the atomic increment: two concurrent adds for
	// the same sku both land, and the stored name/unit_price snapshot from
	// the first add is kept.
	addCartLineSQL = `INSERT INTO cart_lines (customer_id, sku, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id, sku) DO UPDATE
		SET quantity = cart_lines.quantity + EXCLUDED.quantity`

	removeCartLineSQL = `DELETE FROM cart_lines WHERE customer_id = $1 AND sku = $2`

	clearCartSQL = `DELETE FROM cart_lines WHERE customer_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Each
// mutation is a single statement applied against current persisted state, so
// concurrent operations on one cart serialize at the row level.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the customer's cart lines in insertion order. A customer with
// no persisted cart yields a cart with zero lines; nothing is written.
func (r *CartRepository) Get(ctx context.Context, customerID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartLinesSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", customerID, err)
	}

	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", customerID, err)
	}

	return &cart.Cart{CustomerID: customerID, Lines: lines}, nil
}

// AddLine upserts the cart row and the line inside one transaction. The line
// insert increments quantity on sku conflict and leaves the snapshot columns
// untouched.
func (r *CartRepository) AddLine(ctx context.Context, customerID string, line cart.Line) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("adding line to cart %q: %w", customerID, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, ensureCartSQL, customerID); err != nil {
		return fmt.Errorf("ensuring cart %q: %w", customerID, err)
	}
	if _, err := tx.Exec(ctx, addCartLineSQL,
		customerID, line.SKU, line.Name, line.UnitPrice, line.Quantity,
	); err != nil {
		return fmt.Errorf("adding line %q to cart %q: %w", line.SKU, customerID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("adding line to cart %q: %w", customerID, err)
	}
	return nil
}

// RemoveLine deletes the line for sku. Deleting an absent line succeeds.
func (r *CartRepository) RemoveLine(ctx context.Context, customerID, sku string) error {
	if _, err := r.pool.Exec(ctx, removeCartLineSQL, customerID, sku); err != nil {
		return fmt.Errorf("removing line %q from cart %q: %w", sku, customerID, err)
	}
	return nil
}

// Clear deletes all lines for the customer. The cart row itself stays; the
// cart is logically emptied, not deleted.
func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, customerID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", customerID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l     cart.Line
		price decimal.Decimal
	)
	err := row.Scan(&l.SKU, &l.Name, &price, &l.Quantity)
	l.UnitPrice = price
	return l, err
}
