// Package order converts a cart snapshot into an immutable order record
// with a pricing breakdown, and sequences order creation with coupon
// consumption and cart clearing so the records stay mutually consistent.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PaymentMethod selects how the order is settled.
type PaymentMethod string

const (
	// PaymentCash settles on delivery; the cart is cleared at creation.
	PaymentCash PaymentMethod = "CASH"
	// PaymentOnline settles through the payment gateway; the cart is
	// cleared only after payment verification succeeds.
	PaymentOnline PaymentMethod = "ONLINE"
)

// Status is the fulfillment state of an order. DELIVERED and CANCELLED
// are terminal; progression beyond PLACED is handled elsewhere.
type Status string

const (
	StatusPlaced         Status = "PLACED"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPreparing      Status = "PREPARING"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// PaymentStatus is the payment state of an order. It is the only order
// field mutated after creation.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var (
	// ErrEmptyCart is returned when checkout starts with no cart or an
	// empty one.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPaymentMethod is returned for unknown payment methods.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
)

// Item is a line item denormalized from the cart at creation time, so
// later menu edits never alter order history.
type Item struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
}

// Address is the delivery address snapshot stored with the order.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

// Pricing is the order's price breakdown. GrandTotal always equals
// Subtotal + Tax + DeliveryFee - Discount.
type Pricing struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	GrandTotal  decimal.Decimal
}

// Order is an immutable historical record of a checkout.
type Order struct {
	ID            string
	UserID        string
	RestaurantID  string
	Items         []Item
	Pricing       Pricing
	CouponCode    string
	Address       Address
	PaymentMethod PaymentMethod
	Status        Status
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// Settlement describes the writes that must land in the same transaction
// as the order insert. Zero values mean "no such write".
type Settlement struct {
	// ConsumeCouponID records one coupon use by ConsumeUserID, guarded by
	// the usual limit checks re-verified at consumption time.
	ConsumeCouponID string
	ConsumeUserID   string
	// ClearCartID deletes the cart (cash checkout only).
	ClearCartID string
}

// Repository defines persistence for orders. CreateSettled must execute
// the order insert and the settlement writes as one atomic unit.
type Repository interface {
	CreateSettled(ctx context.Context, o *Order, s Settlement) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
