// Package handler exposes the checkout pipeline over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealcart/checkout/internal/domain/cart"
	"github.com/mealcart/checkout/internal/domain/coupon"
	"github.com/mealcart/checkout/internal/domain/order"
	"github.com/mealcart/checkout/internal/domain/payment"
)

// Handler wires the domain services to the HTTP surface. All routes are
// JSON and identify the caller through the session cookie.
type Handler struct {
	sessions *Sessions
	carts    *cart.Service
	coupons  *coupon.Service
	orders   *order.Service
	payments *payment.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	sessions *Sessions,
	carts *cart.Service,
	coupons *coupon.Service,
	orders *order.Service,
	payments *payment.Service,
) *Handler {
	return &Handler{
		sessions: sessions,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
		payments: payments,
	}
}

// Routes returns the API router. Every route requires a valid session.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.sessions.Middleware)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addCartItem)
		r.Put("/items/{menuItemID}", h.updateCartItem)
		r.Delete("/items/{menuItemID}", h.removeCartItem)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.createCoupon)
		r.Get("/restaurant/{restaurantID}", h.listCoupons)
		r.Post("/apply", h.applyCoupon)
		r.Patch("/{couponID}/use", h.consumeCoupon)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Post("/create-payment", h.createPayment)
		r.Post("/verify-payment", h.verifyPayment)
	})

	return r
}
