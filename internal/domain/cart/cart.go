// Package cart implements the per-customer shopping cart: the line model,
// the persistence contract, and the Manager that owns all cart mutations.
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Line is a single cart entry. Name and UnitPrice are snapshots captured when
// the sku first entered the cart; they are never refreshed from the catalog
// for the life of the line.
type Line struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity, rounded to two decimal places.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Cart is the mutable pending-purchase state for one customer. Lines keep
// insertion order. A customer with no persisted cart is represented by a Cart
// with zero lines; the zero value is never written back on a pure read.
type Cart struct {
	CustomerID string `json:"customerId"`
	Lines      []Line `json:"lines"`
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Total returns the sum of line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Repository defines persistence operations for carts. Implementations must
// apply each mutation against current persisted state: concurrent AddLine
// calls for the same sku must both be observed (an atomic increment, not two
// racing read-then-write cycles), and concurrent adds for different skus must
// not lose either line.
type Repository interface {
	// Get returns the customer's cart with lines in insertion order, or a
	// cart with zero lines when none is persisted. A read never writes.
	Get(ctx context.Context, customerID string) (*Cart, error)

	// AddLine upserts a line. If the sku is already present its quantity is
	// incremented by line.Quantity and the stored name/unit price are kept;
	// otherwise the line is appended.
	AddLine(ctx context.Context, customerID string, line Line) error

	// RemoveLine deletes the line for sku. Absent skus are not an error.
	RemoveLine(ctx context.Context, customerID, sku string) error

	// Clear removes all lines. Clearing an empty cart is not an error.
	Clear(ctx context.Context, customerID string) error
}
