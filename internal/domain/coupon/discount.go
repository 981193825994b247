package coupon

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// computeDiscount calculates the discount a coupon grants on orderAmount.
//
// PERCENTAGE: orderAmount * value / 100, capped by MaxDiscount when set.
// FLAT: the value directly. Either way the result is capped at orderAmount
// (a discount can never exceed the bill), floored at zero, and rounded to
// 2 decimal places using half-away-from-zero rounding (shopspring Round).
func computeDiscount(c *Coupon, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal

	switch c.DiscountType {
	case DiscountPercentage:
		amount = orderAmount.Mul(c.Value).Div(hundred)
		if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
			amount = *c.MaxDiscount
		}
	case DiscountFlat:
		amount = c.Value
	default:
		return decimal.Zero, ErrInvalidDiscountType
	}

	amount = decimal.Min(amount, orderAmount)
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return amount.Round(2), nil
}
