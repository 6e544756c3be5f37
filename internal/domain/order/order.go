// Package order holds the immutable order model, the checkout coordinator,
// and the order query surface.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates persisted order states. Orders are only ever persisted as
// Paid; rejected checkouts never create a row.
type Status string

// StatusPaid is the single persisted order status.
const StatusPaid Status = "Paid"

// Line is an order line item, copied verbatim from the corresponding cart
// line at checkout time. Prices are frozen; catalog changes never alter them.
type Line struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Order is an immutable record of a completed checkout. ID is assigned by the
// store as a monotonically increasing sequence; nothing mutates an Order
// after creation.
type Order struct {
	ID         int64           `json:"id"`
	CustomerID string          `json:"customerId"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"createdAt"`
	Lines      []Line          `json:"lines"`
}

// Repository defines the append-only order store.
type Repository interface {
	// Create persists the order and clears the customer's cart lines in one
	// transaction, then fills in the generated ID and CreatedAt. A returned
	// order is therefore always accompanied by an emptied cart, and a cart
	// line added concurrently after the transaction commits is never lost.
	Create(ctx context.Context, o *Order) error

	// GetByID returns the order or pgx's no-rows error wrapped as a domain
	// not-found.
	GetByID(ctx context.Context, id int64) (*Order, error)

	// ListByCustomer returns the customer's orders, newest first
	// (created_at desc, id desc).
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)

	// ListAll returns every order, newest first. Admin surface only.
	ListAll(ctx context.Context) ([]Order, error)
}
