package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cartwheel/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type cartResponse struct {
	CustomerID string             `json:"customerId"`
	Lines      []cartLineResponse `json:"lines"`
	Total      decimal.Decimal    `json:"total"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	lines := make([]cartLineResponse, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = cartLineResponse{
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	return cartResponse{
		CustomerID: c.CustomerID,
		Lines:      lines,
		Total:      c.Total(),
	}
}

// GetCart returns the target customer's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")

	c, err := h.carts.Get(r.Context(), p, customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// AddItem adds quantity units of a product to the cart and returns the
// updated cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "invalid JSON body"})
		return
	}

	c, err := h.carts.AddItem(r.Context(), p, customerID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem deletes a line by sku. Removing an absent sku still returns 204.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")
	sku := chi.URLParam(r, "sku")

	if err := h.carts.RemoveItem(r.Context(), p, customerID, sku); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart empties the cart. Clearing an empty cart still returns 204.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")

	if err := h.carts.Clear(r.Context(), p, customerID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
