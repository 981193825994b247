package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service encapsulates coupon creation, validation, and consumption.
type Service struct {
	coupons Repository
	now     func() time.Time
}

// NewService creates a coupon Service backed by the given Repository.
func NewService(coupons Repository) *Service {
	return &Service{coupons: coupons, now: time.Now}
}

// CreateRequest holds the input for creating a coupon.
type CreateRequest struct {
	Code           string
	RestaurantID   string
	DiscountType   DiscountType
	Value          decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MinOrderAmount decimal.Decimal
	UsageLimit     int
	PerUserLimit   int
	ExpiresAt      *time.Time
}

// Create registers a new coupon. Codes are uppercased and must be unique
// across the whole system, not just per restaurant; duplicates fail with
// ErrDuplicateCode.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Coupon, error) {
	switch req.DiscountType {
	case DiscountPercentage, DiscountFlat:
	default:
		return nil, ErrInvalidDiscountType
	}

	perUser := req.PerUserLimit
	if perUser <= 0 {
		perUser = 1
	}

	c := &Coupon{
		ID:             uuid.New().String(),
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		RestaurantID:   req.RestaurantID,
		DiscountType:   req.DiscountType,
		Value:          req.Value,
		MaxDiscount:    req.MaxDiscount,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		PerUserLimit:   perUser,
		ExpiresAt:      req.ExpiresAt,
		Active:         true,
		CreatedAt:      s.now(),
	}

	if err := s.coupons.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, ErrDuplicateCode
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// ListByRestaurant returns the restaurant's coupons, newest first.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string) ([]Coupon, error) {
	return s.coupons.ListByRestaurant(ctx, restaurantID)
}

// Apply validates the coupon for the given user and order amount and
// computes the discount. It is a pure read: usage is not recorded until
// Consume is called after the order is durably created.
func (s *Service) Apply(ctx context.Context, userID, code, restaurantID string, orderAmount decimal.Decimal) (*Quote, error) {
	c, err := s.coupons.FindByCode(ctx, code, restaurantID)
	if err != nil {
		return nil, err
	}

	if !c.Active {
		return nil, ErrInactive
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(s.now()) {
		return nil, ErrExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return nil, ErrUsageLimitReached
	}
	if orderAmount.LessThan(c.MinOrderAmount) {
		return nil, &MinOrderAmountError{MinOrderAmount: c.MinOrderAmount}
	}
	if c.timesUsedBy(userID) >= c.PerUserLimit {
		return nil, ErrAlreadyUsed
	}

	discount, err := computeDiscount(c, orderAmount)
	if err != nil {
		return nil, err
	}

	return &Quote{
		CouponID:    c.ID,
		Code:        c.Code,
		Discount:    discount,
		FinalAmount: orderAmount.Sub(discount),
	}, nil
}

// Consume records one use of the coupon by the user. The limit checks run
// again inside the repository's conditional update, so a stale Apply result
// cannot sneak past a limit that has since been exhausted.
func (s *Service) Consume(ctx context.Context, couponID, userID string) error {
	return s.coupons.Consume(ctx, couponID, userID)
}
