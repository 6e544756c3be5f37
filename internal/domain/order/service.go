package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/domain/cart"
)

// Checkout and query failures the caller is expected to handle.
var (
	// ErrEmptyCart rejects checkout of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentRejected rejects checkout with an empty payment token. There
	// is no real payment processing behind it.
	ErrPaymentRejected = errors.New("payment rejected")
	// ErrNotFound covers both unknown order ids and ids owned by another
	// customer; existence of other customers' orders is not disclosed.
	ErrNotFound = errors.New("order not found")
)

// Service coordinates checkout and serves order queries.
type Service struct {
	carts  cart.Repository
	orders Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(carts cart.Repository, orders Repository) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
	}
}

// Checkout converts the customer's cart into a persisted order and empties
// the cart, as one logical transition:
//
//  1. Only the exact owner may check out; no administrative bypass.
//  2. An empty cart fails with ErrEmptyCart before anything else runs.
//  3. Lines are copied verbatim; the total is the sum of per-line subtotals
//     rounded to two decimal places.
//  4. A non-empty payment token marks the order Paid; an empty one fails
//     with ErrPaymentRejected without creating anything.
//  5. The repository persists the order and clears the cart transactionally.
func (s *Service) Checkout(ctx context.Context, p *auth.Principal, customerID, paymentToken string) (*Order, error) {
	if err := auth.AuthorizeOwner(p, customerID); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	if paymentToken == "" {
		return nil, ErrPaymentRejected
	}

	lines := make([]Line, len(c.Lines))
	total := decimal.Zero
	for i, l := range c.Lines {
		lines[i] = Line{
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
		total = total.Add(l.Subtotal())
	}

	o := &Order{
		CustomerID: customerID,
		Status:     StatusPaid,
		Total:      total,
		Lines:      lines,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return o, nil
}

// List returns orders visible to the caller: administrators see every order,
// any other authenticated principal sees only its own.
func (s *Service) List(ctx context.Context, p *auth.Principal) ([]Order, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return s.orders.ListAll(ctx)
	}
	return s.orders.ListByCustomer(ctx, p.ID)
}

// Get returns a single order visible to its owner or an administrator. An id
// owned by someone else reports ErrNotFound, indistinguishable from an id
// that does not exist.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Order, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID && !p.IsAdmin() {
		return nil, ErrNotFound
	}
	return o, nil
}
