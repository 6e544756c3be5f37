// Package product defines the catalog item model and the lookup capability
// the cart depends on. Catalog storage itself lives behind the Repository.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or is no
// longer active.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price carries the
// currency's natural two-decimal precision.
type Product struct {
	ID     string
	SKU    string
	Name   string
	Price  decimal.Decimal
	Active bool
}

// Repository defines read operations for the product catalog. GetByID is the
// lookup used at cart-add time; implementations return ErrNotFound for
// unknown ids but surface inactive products so callers can distinguish them.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
