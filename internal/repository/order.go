package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cartwheel/storefront/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (customer_id, status, total)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, position, sku, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	clearCartLinesSQL = `DELETE FROM cart_lines WHERE customer_id = $1`

	getOrderSQL = `SELECT id, customer_id, status, total, created_at
		FROM orders WHERE id = $1`

	listOrdersByCustomerSQL = `SELECT id, customer_id, status, total, created_at
		FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`

	listAllOrdersSQL = `SELECT id, customer_id, status, total, created_at
		FROM orders ORDER BY created_at DESC, id DESC`

	getOrderLinesSQL = `SELECT sku, name, unit_price, quantity
		FROM order_lines WHERE order_id = $1 ORDER BY position`

	getLinesForOrdersSQL = `SELECT order_id, sku, name, unit_price, quantity
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position`
)

// CartInvalidator drops a customer's cached cart after the backing rows
// changed. A nil invalidator is a no-op.
type CartInvalidator interface {
	Delete(ctx context.Context, customerID string) error
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements the append-only order store on PostgreSQL.
// Create runs the order insert and the cart clear in one transaction, which
// is the checkout atomicity guarantee.
type OrderRepository struct {
	pool  *pgxpool.Pool
	cache CartInvalidator
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
// cache may be nil when no cart cache is configured.
func NewOrderRepository(pool *pgxpool.Pool, cache CartInvalidator) *OrderRepository {
	return &OrderRepository{pool: pool, cache: cache}
}

// Create persists the order with its lines and clears the customer's cart
// lines in the same transaction, then fills in the generated id and creation
// timestamp. Cart lines inserted after the transaction commits are untouched.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := tx.QueryRow(ctx, insertOrderSQL,
		o.CustomerID, string(o.Status), o.Total,
	).Scan(&o.ID, &o.CreatedAt); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for i, l := range o.Lines {
		if _, err := tx.Exec(ctx, insertOrderLineSQL,
			o.ID, i, l.SKU, l.Name, l.UnitPrice, l.Quantity,
		); err != nil {
			return fmt.Errorf("inserting order line %q: %w", l.SKU, err)
		}
	}

	if _, err := tx.Exec(ctx, clearCartLinesSQL, o.CustomerID); err != nil {
		return fmt.Errorf("clearing cart for %q: %w", o.CustomerID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	if r.cache != nil {
		r.invalidateCart(ctx, o.CustomerID)
	}
	return nil
}

// invalidateCart drops the customer's cached cart after checkout committed.
// The order is already durable, so a failed invalidation must not fail the
// checkout; retry a few times and log, leaving TTL expiry as the backstop.
func (r *OrderRepository) invalidateCart(ctx context.Context, customerID string) {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = r.cache.Delete(ctx, customerID); err == nil {
			return
		}
	}
	zctx.From(ctx).Warn("Cart cache invalidation failed after checkout",
		zap.String("customer_id", customerID),
		zap.Error(err),
	)
}

// GetByID returns the order with its lines, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	lineRows, err := r.pool.Query(ctx, getOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %d: %w", id, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %d: %w", id, err)
	}

	return &o, nil
}

// ListByCustomer returns the customer's orders with lines, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", customerID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", customerID, err)
	}
	return r.attachLines(ctx, orders)
}

// ListAll returns every order with lines, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return r.attachLines(ctx, orders)
}

// attachLines fills Lines for each order with a single batch query.
func (r *OrderRepository) attachLines(ctx context.Context, orders []order.Order) ([]order.Order, error) {
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, getLinesForOrdersSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.SKU, &l.Name, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &status, &o.Total, &o.CreatedAt)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(&l.SKU, &l.Name, &l.UnitPrice, &l.Quantity)
	return l, err
}
