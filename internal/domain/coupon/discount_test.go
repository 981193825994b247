package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name        string
		coupon      *Coupon
		orderAmount decimal.Decimal
		want        decimal.Decimal
		wantErr     error
	}{
		{
			name: "percentage without cap",
			coupon: &Coupon{
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
			},
			orderAmount: dec("500.00"),
			want:        dec("50.00"),
		},
		{
			name: "percentage capped by max discount",
			coupon: &Coupon{
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(20),
				MaxDiscount:  decPtr("100"),
			},
			orderAmount: dec("1000.00"),
			want:        dec("100.00"),
		},
		{
			name: "percentage under max discount keeps computed amount",
			coupon: &Coupon{
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(20),
				MaxDiscount:  decPtr("100"),
			},
			orderAmount: dec("300.00"),
			want:        dec("60.00"),
		},
		{
			name: "percentage rounds half away from zero",
			coupon: &Coupon{
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
			},
			orderAmount: dec("55.55"),
			want:        dec("5.56"),
		},
		{
			name: "flat discount",
			coupon: &Coupon{
				DiscountType: DiscountFlat,
				Value:        decimal.NewFromInt(50),
			},
			orderAmount: dec("300.00"),
			want:        dec("50.00"),
		},
		{
			name: "flat discount capped at order amount",
			coupon: &Coupon{
				DiscountType: DiscountFlat,
				Value:        decimal.NewFromInt(50),
			},
			orderAmount: dec("30.00"),
			want:        dec("30.00"),
		},
		{
			name: "negative value floored at zero",
			coupon: &Coupon{
				DiscountType: DiscountFlat,
				Value:        decimal.NewFromInt(-5),
			},
			orderAmount: dec("30.00"),
			want:        decimal.Zero,
		},
		{
			name: "unknown discount type",
			coupon: &Coupon{
				DiscountType: DiscountType("BOGUS"),
				Value:        decimal.NewFromInt(5),
			},
			orderAmount: dec("30.00"),
			wantErr:     ErrInvalidDiscountType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := computeDiscount(tt.coupon, tt.orderAmount)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got),
				"expected discount %s, got %s", tt.want, got)
		})
	}
}
