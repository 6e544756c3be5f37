package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cartwheel/storefront/internal/domain/auth"
	"github.com/cartwheel/storefront/internal/domain/cart"
	"github.com/cartwheel/storefront/internal/domain/order"
	"github.com/cartwheel/storefront/internal/domain/product"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// respondError maps domain errors to the failure shapes callers rely on:
// 401 unauthenticated, 403 forbidden, 404 not found, 400/422 for validation.
// Anything unmapped is a 500 with the detail kept out of the response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Code: 401, Message: "unauthenticated"})
	case errors.Is(err, auth.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Code: 403, Message: "forbidden"})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, product.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Code: 404, Message: "not found"})
	case errors.Is(err, order.ErrEmptyCart):
		respondJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "cart is empty"})
	case errors.Is(err, order.ErrPaymentRejected):
		respondJSON(w, http.StatusBadRequest, errorResponse{Code: 400, Message: "payment rejected"})
	default:
		var iqErr *cart.InvalidQuantityError
		if errors.As(err, &iqErr) {
			respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: 422, Message: iqErr.Error()})
			return
		}
		var pnfErr *cart.ProductNotFoundError
		if errors.As(err, &pnfErr) {
			respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: 422, Message: pnfErr.Error()})
			return
		}

		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorResponse{Code: 500, Message: "internal error"})
	}
}
