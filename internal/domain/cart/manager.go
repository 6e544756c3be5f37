package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/domain/product"
)

// InvalidQuantityError indicates an add request with a non-positive quantity.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0, got %d", e.Quantity)
}

// ProductNotFoundError indicates the requested product does not exist or is
// inactive.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Manager owns all cart operations. Every entry point authorizes the caller
// against the target customer before touching the store; side effects are
// confined to the cart Repository.
type Manager struct {
	carts    Repository
	products product.Repository
}

// NewManager creates a cart Manager with the required dependencies.
func NewManager(carts Repository, products product.Repository) *Manager {
	return &Manager{
		carts:    carts,
		products: products,
	}
}

// Get returns the caller's cart, or an empty cart if none has been persisted
// yet. The implicit empty cart is a value; nothing is written.
func (m *Manager) Get(ctx context.Context, p *auth.Principal, customerID string) (*Cart, error) {
	if err := auth.AuthorizeOwner(p, customerID); err != nil {
		return nil, err
	}
	return m.carts.Get(ctx, customerID)
}

// AddItem resolves productID through the catalog and adds quantity units to
// the cart. The product's sku, name, and price are snapshotted into the line
// on first add; subsequent adds of the same sku only increase the quantity.
func (m *Manager) AddItem(ctx context.Context, p *auth.Principal, customerID, productID string, quantity int) (*Cart, error) {
	if err := auth.AuthorizeOwner(p, customerID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	prod, err := m.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, fmt.Errorf("lookup product %q: %w", productID, err)
	}
	if !prod.Active {
		return nil, &ProductNotFoundError{ProductID: productID}
	}

	line := Line{
		SKU:       prod.SKU,
		Name:      prod.Name,
		UnitPrice: prod.Price,
		Quantity:  quantity,
	}
	if err := m.carts.AddLine(ctx, customerID, line); err != nil {
		return nil, fmt.Errorf("add line %q: %w", prod.SKU, err)
	}

	return m.carts.Get(ctx, customerID)
}

// RemoveItem deletes the line for sku. Removing an absent sku succeeds; the
// operation is idempotent by contract.
func (m *Manager) RemoveItem(ctx context.Context, p *auth.Principal, customerID, sku string) error {
	if err := auth.AuthorizeOwner(p, customerID); err != nil {
		return err
	}
	if err := m.carts.RemoveLine(ctx, customerID, sku); err != nil {
		return fmt.Errorf("remove line %q: %w", sku, err)
	}
	return nil
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (m *Manager) Clear(ctx context.Context, p *auth.Principal, customerID string) error {
	if err := auth.AuthorizeOwner(p, customerID); err != nil {
		return err
	}
	if err := m.carts.Clear(ctx, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
