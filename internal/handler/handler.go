// Package handler exposes the cart, checkout, order, and catalog operations
// over HTTP. Transport concerns stop here: handlers resolve the caller's
// principal, decode input, and delegate to the domain services.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartwheel/storefront/internal/domain/cart"
	"github.com/cartwheel/storefront/internal/domain/order"
	"github.com/cartwheel/storefront/internal/domain/product"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	carts    *cart.Manager
	orders   *order.Service
	products product.Repository
	security *Security
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	carts *cart.Manager,
	orders *order.Service,
	products product.Repository,
	security *Security,
) *Handler {
	return &Handler{
		carts:    carts,
		orders:   orders,
		products: products,
		security: security,
	}
}

// Routes returns the API router. Every route runs behind the principal
// resolver; authorization itself happens in the domain layer.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.security.ResolvePrincipal)

	r.Route("/carts/{customerID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{sku}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{productID}", h.GetProduct)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written; encoding failures can only mean a
	// disconnected client.
	_ = json.NewEncoder(w).Encode(body)
}
