package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mealcart/checkout/internal/domain/cart"
	"github.com/mealcart/checkout/internal/domain/coupon"
	"github.com/mealcart/checkout/internal/domain/order"
	"github.com/mealcart/checkout/internal/domain/payment"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Code: status, Message: message})
}

// renderError maps domain errors onto the HTTP taxonomy. Anything
// unrecognized becomes a bare 500: internals are logged, never echoed.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflictErr *cart.RestaurantConflictError
		minOrderErr *coupon.MinOrderAmountError
		gatewayErr  *payment.GatewayError
	)

	switch {
	// Validation.
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, coupon.ErrInvalidDiscountType):
		writeError(w, r, http.StatusBadRequest, err.Error())

	// Conflicts: cross-restaurant cart add, duplicate coupon code.
	case errors.As(err, &conflictErr),
		errors.Is(err, coupon.ErrDuplicateCode):
		writeError(w, r, http.StatusBadRequest, err.Error())

	// Not found.
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, payment.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())

	// Coupon limits and eligibility, each with its own message.
	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrAlreadyUsed),
		errors.As(err, &minOrderErr):
		writeError(w, r, http.StatusBadRequest, err.Error())

	// Gateway connectivity: retryable by the caller.
	case errors.As(err, &gatewayErr):
		writeError(w, r, http.StatusBadGateway, "payment gateway unavailable, retry later")

	// Signature mismatch: terminal for this payment attempt.
	case errors.Is(err, payment.ErrSignatureMismatch):
		writeError(w, r, http.StatusBadRequest, err.Error())

	default:
		zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
