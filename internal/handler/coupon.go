package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mealcart/checkout/internal/domain/coupon"
)

type couponResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	RestaurantID   string     `json:"restaurantId"`
	DiscountType   string     `json:"discountType"`
	DiscountValue  float64    `json:"discountValue"`
	MaxDiscount    *float64   `json:"maxDiscount,omitempty"`
	MinOrderAmount float64    `json:"minOrderAmount"`
	UsageLimit     int        `json:"usageLimit,omitempty"`
	UsedCount      int        `json:"usedCount"`
	PerUserLimit   int        `json:"perUserLimit"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	resp := couponResponse{
		ID:             c.ID,
		Code:           c.Code,
		RestaurantID:   c.RestaurantID,
		DiscountType:   string(c.DiscountType),
		DiscountValue:  c.Value.InexactFloat64(),
		MinOrderAmount: c.MinOrderAmount.InexactFloat64(),
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
		PerUserLimit:   c.PerUserLimit,
		ExpiresAt:      c.ExpiresAt,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
	if c.MaxDiscount != nil {
		v := c.MaxDiscount.InexactFloat64()
		resp.MaxDiscount = &v
	}
	return resp
}

type createCouponRequest struct {
	Code           string     `json:"code"`
	RestaurantID   string     `json:"restaurantId"`
	DiscountType   string     `json:"discountType"`
	DiscountValue  float64    `json:"discountValue"`
	MaxDiscount    *float64   `json:"maxDiscount"`
	MinOrderAmount float64    `json:"minOrderAmount"`
	UsageLimit     int        `json:"usageLimit"`
	PerUserLimit   int        `json:"perUserLimit"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

func (req *createCouponRequest) Bind(*http.Request) error {
	switch {
	case req.Code == "":
		return errors.New("code is required")
	case req.RestaurantID == "":
		return errors.New("restaurantId is required")
	case req.DiscountValue <= 0:
		return errors.New("discountValue must be positive")
	case req.UsageLimit < 0 || req.PerUserLimit < 0:
		return errors.New("limits must not be negative")
	}
	return nil
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var maxDiscount *decimal.Decimal
	if req.MaxDiscount != nil {
		v := decimal.NewFromFloat(*req.MaxDiscount)
		maxDiscount = &v
	}

	c, err := h.coupons.Create(r.Context(), coupon.CreateRequest{
		Code:           req.Code,
		RestaurantID:   req.RestaurantID,
		DiscountType:   coupon.DiscountType(req.DiscountType),
		Value:          decimal.NewFromFloat(req.DiscountValue),
		MaxDiscount:    maxDiscount,
		MinOrderAmount: decimal.NewFromFloat(req.MinOrderAmount),
		UsageLimit:     req.UsageLimit,
		PerUserLimit:   req.PerUserLimit,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toCouponResponse(c))
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.ListByRestaurant(r.Context(), chi.URLParam(r, "restaurantID"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i := range coupons {
		resp[i] = toCouponResponse(&coupons[i])
	}
	render.JSON(w, r, resp)
}

type applyCouponRequest struct {
	Code         string  `json:"code"`
	RestaurantID string  `json:"restaurantId"`
	OrderAmount  float64 `json:"orderAmount"`
}

func (req *applyCouponRequest) Bind(*http.Request) error {
	switch {
	case req.Code == "":
		return errors.New("code is required")
	case req.RestaurantID == "":
		return errors.New("restaurantId is required")
	case req.OrderAmount <= 0:
		return errors.New("orderAmount must be positive")
	}
	return nil
}

type applyCouponResponse struct {
	CouponID    string  `json:"couponId"`
	Code        string  `json:"code"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"finalAmount"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.coupons.Apply(r.Context(), UserID(r.Context()),
		req.Code, req.RestaurantID, decimal.NewFromFloat(req.OrderAmount))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, applyCouponResponse{
		CouponID:    quote.CouponID,
		Code:        quote.Code,
		Discount:    quote.Discount.InexactFloat64(),
		FinalAmount: quote.FinalAmount.InexactFloat64(),
	})
}

func (h *Handler) consumeCoupon(w http.ResponseWriter, r *http.Request) {
	err := h.coupons.Consume(r.Context(), chi.URLParam(r, "couponID"), UserID(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "coupon consumed"})
}
