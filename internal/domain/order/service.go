package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealcart/checkout/internal/domain/cart"
	"github.com/mealcart/checkout/internal/domain/coupon"
)

// CouponApplier validates a coupon against an order amount without
// recording usage. Satisfied by *coupon.Service.
type CouponApplier interface {
	Apply(ctx context.Context, userID, code, restaurantID string, orderAmount decimal.Decimal) (*coupon.Quote, error)
}

// PricingConfig holds the fixed pricing rules applied to every order.
type PricingConfig struct {
	// DeliveryFee is added to every order.
	DeliveryFee decimal.Decimal
	// TaxRatePercent is applied to the subtotal.
	TaxRatePercent decimal.Decimal
}

// Service is the order factory: it turns the user's cart into a persisted
// immutable order and coordinates the settlement writes that belong to the
// same checkout.
type Service struct {
	carts   cart.Repository
	coupons CouponApplier
	orders  Repository
	pricing PricingConfig
}

// NewService creates an order Service.
func NewService(carts cart.Repository, coupons CouponApplier, orders Repository, pricing PricingConfig) *Service {
	return &Service{
		carts:   carts,
		coupons: coupons,
		orders:  orders,
		pricing: pricing,
	}
}

// CreateRequest holds the input for checkout.
type CreateRequest struct {
	Address       Address
	PaymentMethod PaymentMethod
	// CouponCode, when set, is applied and consumed as part of this
	// checkout.
	CouponCode string
}

// Create converts the user's cart into an order.
//
// The cart lines are snapshotted into the order so later menu edits never
// rewrite history. When a coupon code is supplied its discount is folded
// into the breakdown and the coupon is consumed in the same transaction as
// the order insert. Cash orders clear the cart in that transaction too;
// online orders leave the cart intact until payment verification succeeds,
// so a failed or abandoned payment leaves the cart recoverable for retry.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	if req.PaymentMethod != PaymentCash && req.PaymentMethod != PaymentOnline {
		return nil, ErrInvalidPaymentMethod
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]Item, len(c.Items))
	subtotal := decimal.Zero
	for i, it := range c.Items {
		items[i] = Item{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	subtotal = subtotal.Round(2)

	settlement := Settlement{}
	discount := decimal.Zero
	couponCode := ""
	if req.CouponCode != "" {
		quote, err := s.coupons.Apply(ctx, userID, req.CouponCode, c.RestaurantID, subtotal)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
		couponCode = quote.Code
		settlement.ConsumeCouponID = quote.CouponID
		settlement.ConsumeUserID = userID
	}

	tax := subtotal.Mul(s.pricing.TaxRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	fee := s.pricing.DeliveryFee

	o := &Order{
		ID:           uuid.New().String(),
		UserID:       userID,
		RestaurantID: c.RestaurantID,
		Items:        items,
		Pricing: Pricing{
			Subtotal:    subtotal,
			DeliveryFee: fee,
			Tax:         tax,
			Discount:    discount,
			GrandTotal:  subtotal.Add(tax).Add(fee).Sub(discount),
		},
		CouponCode:    couponCode,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Status:        StatusPlaced,
		PaymentStatus: PaymentPending,
	}

	if req.PaymentMethod == PaymentCash {
		settlement.ClearCartID = c.ID
	}

	if err := s.orders.CreateSettled(ctx, o, settlement); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// ListByUser returns the caller's order history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
