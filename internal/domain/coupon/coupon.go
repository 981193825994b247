// Package coupon validates discount coupons against an order amount and a
// user's usage history, computes discounts, and records consumption.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the order amount,
	// optionally capped by MaxDiscount.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFlat subtracts a fixed amount, capped at the order amount.
	DiscountFlat DiscountType = "FLAT"
)

var (
	// ErrNotFound is returned when no coupon matches the code and restaurant.
	ErrNotFound = errors.New("coupon not found")
	// ErrDuplicateCode is returned when creating a coupon whose code is
	// already taken anywhere in the system.
	ErrDuplicateCode = errors.New("coupon code already exists")
	// ErrInactive is returned for coupons disabled by the restaurant.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when the coupon's expiry is in the past.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitReached is returned when the coupon has no uses left.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrAlreadyUsed is returned when the user has hit the per-user limit.
	ErrAlreadyUsed = errors.New("coupon already used by this user")
	// ErrInvalidDiscountType is returned for unknown discount types.
	ErrInvalidDiscountType = errors.New("invalid discount type")
)

// MinOrderAmountError is returned when the order amount does not reach the
// coupon's minimum.
type MinOrderAmountError struct {
	MinOrderAmount decimal.Decimal
}

func (e *MinOrderAmountError) Error() string {
	return "minimum order amount of " + e.MinOrderAmount.StringFixed(2) + " not reached"
}

// Coupon is a restaurant-owned discount code.
//
// UsageLimit == 0 means unlimited total uses. PerUserLimit defaults to 1.
// UsedBy holds one entry per consumption, so a user may appear multiple
// times when PerUserLimit allows repeat use.
type Coupon struct {
	ID             string
	Code           string
	RestaurantID   string
	DiscountType   DiscountType
	Value          decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinOrderAmount decimal.Decimal
	UsageLimit     int
	UsedCount      int
	PerUserLimit   int
	UsedBy         []string
	ExpiresAt      *time.Time
	Active         bool
	CreatedAt      time.Time
}

// timesUsedBy counts how many consumptions the user already has.
func (c *Coupon) timesUsedBy(userID string) int {
	n := 0
	for _, u := range c.UsedBy {
		if u == userID {
			n++
		}
	}
	return n
}

// Quote is the result of applying a coupon to an order amount. Apply never
// mutates usage; CouponID is carried so the caller can consume the coupon
// once the order is durably created.
type Quote struct {
	CouponID    string
	Code        string
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
}

// Repository defines persistence for coupons. Consume must be a single
// conditional update at the storage layer: increment the use counter and
// append the user in one statement guarded by the usage and per-user
// limits, so two concurrent checkouts cannot both take the last slot.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	// FindByCode looks a coupon up by (code, restaurant). The lookup is
	// case-insensitive on the code.
	FindByCode(ctx context.Context, code, restaurantID string) (*Coupon, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Coupon, error)
	// Consume atomically records one use by userID. It returns ErrNotFound,
	// ErrUsageLimitReached, or ErrAlreadyUsed when the guarded update did
	// not apply.
	Consume(ctx context.Context, couponID, userID string) error
}
