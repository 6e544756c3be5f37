package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cartwheel/storefront/internal/domain/order"
)

type orderLineResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type orderResponse struct {
	ID         int64               `json:"id"`
	CustomerID string              `json:"customerId"`
	Status     string              `json:"status"`
	Total      decimal.Decimal     `json:"total"`
	CreatedAt  time.Time           `json:"createdAt"`
	Lines      []orderLineResponse `json:"lines"`
}

func toOrderResponse(o *order.Order) orderResponse {
	lines := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = orderLineResponse{
			SKU:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}
	return orderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Status:     string(o.Status),
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		Lines:      lines,
	}
}

type checkoutRequest struct {
	PaymentToken string `json:"paymentToken"`
}

// Checkout converts the cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "invalid JSON body"})
		return
	}

	o, err := h.orders.Checkout(r.Context(), p, customerID, req.PaymentToken)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns the orders visible to the caller, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	orders, err := h.orders.List(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetOrder returns one order by id. Ids owned by other customers report the
// same 404 as unknown ids.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, r, order.ErrNotFound)
		return
	}

	o, err := h.orders.Get(r.Context(), p, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
