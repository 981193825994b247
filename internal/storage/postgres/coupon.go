package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mealcart/checkout/internal/domain/coupon"
)

const (
	insertCouponSQL = `INSERT INTO coupons
			(id, code, restaurant_id, discount_type, value, max_discount,
			 min_order_amount, usage_limit, per_user_limit, expires_at, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	couponColumns = `id, code, restaurant_id, discount_type, value, max_discount,
		min_order_amount, usage_limit, used_count, per_user_limit, used_by,
		expires_at, active, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE UPPER(code) = UPPER($1) AND restaurant_id = $2`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	listCouponsSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE restaurant_id = $1 ORDER BY created_at DESC`

	// consumeCouponSQL is the single conditional update that records one
	// use. The limit checks run server-side inside this statement, so two
	// concurrent checkouts cannot both take a limit's last slot. Reading
	// the count, checking it in Go, and writing it back would be a race.
	consumeCouponSQL = `UPDATE coupons
		SET used_count = used_count + 1,
		    used_by = array_append(used_by, $2)
		WHERE id = $1
		  AND active
		  AND (usage_limit = 0 OR used_count < usage_limit)
		  AND (SELECT count(*) FROM unnest(used_by) AS u WHERE u = $2) < per_user_limit`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create persists a new coupon. A system-wide duplicate code fails the
// UNIQUE constraint and maps to coupon.ErrDuplicateCode.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, insertCouponSQL,
		c.ID, c.Code, c.RestaurantID, string(c.DiscountType), c.Value, c.MaxDiscount,
		c.MinOrderAmount, c.UsageLimit, c.PerUserLimit, c.ExpiresAt, c.Active, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("inserting coupon %q: %w", c.Code, err)
	}
	return nil
}

// FindByCode looks a coupon up by code and restaurant, case-insensitive on
// the code. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) FindByCode(ctx context.Context, code, restaurantID string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// ListByRestaurant returns all of the restaurant's coupons, newest first.
func (r *CouponRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for restaurant %q: %w", restaurantID, err)
	}
	coupons, err := pgx.CollectRows(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("listing coupons for restaurant %q: %w", restaurantID, err)
	}
	return coupons, nil
}

// Consume atomically records one use by userID via the guarded update.
// When the update applies to no row, the coupon is re-read once to
// classify which guard rejected it.
func (r *CouponRepository) Consume(ctx context.Context, couponID, userID string) error {
	return consumeCoupon(ctx, r.pool, couponID, userID)
}

// querier covers both *pgxpool.Pool and pgx.Tx, so order settlement can
// run the same consume statement inside its transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// consumeCoupon runs the conditional consume update on q and classifies a
// zero-row result into the matching domain error.
func consumeCoupon(ctx context.Context, q querier, couponID, userID string) error {
	tag, err := q.Exec(ctx, consumeCouponSQL, couponID, userID)
	if err != nil {
		return fmt.Errorf("consuming coupon %q: %w", couponID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	rows, err := q.Query(ctx, getCouponByIDSQL, couponID)
	if err != nil {
		return fmt.Errorf("classifying consume rejection for coupon %q: %w", couponID, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrNotFound
		}
		return fmt.Errorf("classifying consume rejection for coupon %q: %w", couponID, err)
	}

	switch {
	case !c.Active:
		return coupon.ErrInactive
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return coupon.ErrUsageLimitReached
	default:
		return coupon.ErrAlreadyUsed
	}
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.RestaurantID, &discountType, &c.Value, &c.MaxDiscount,
		&c.MinOrderAmount, &c.UsageLimit, &c.UsedCount, &c.PerUserLimit, &c.UsedBy,
		&c.ExpiresAt, &c.Active, &c.CreatedAt,
	)
	c.DiscountType = coupon.DiscountType(discountType)
	return c, err
}
