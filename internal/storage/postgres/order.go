package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mealcart/checkout/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
			(id, user_id, restaurant_id, items, subtotal, delivery_fee, tax,
			 discount, grand_total, coupon_code, address, payment_method,
			 status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	orderColumns = `id, user_id, restaurant_id, items, subtotal, delivery_fee, tax,
		discount, grand_total, coupon_code, address, payment_method,
		status, payment_status, created_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateSettled persists the order together with its settlement writes
// (the coupon consume and, for cash checkouts, the cart deletion) in one
// transaction. A crash can therefore never leave an order on disk with its
// coupon unconsumed or its cart half-cleared.
func (r *OrderRepository) CreateSettled(ctx context.Context, o *order.Order, s order.Settlement) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.RestaurantID, itemsJSON,
		o.Pricing.Subtotal, o.Pricing.DeliveryFee, o.Pricing.Tax,
		o.Pricing.Discount, o.Pricing.GrandTotal, o.CouponCode, addressJSON,
		string(o.PaymentMethod), string(o.Status), string(o.PaymentStatus),
	)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	if s.ConsumeCouponID != "" {
		if err := consumeCoupon(ctx, tx, s.ConsumeCouponID, s.ConsumeUserID); err != nil {
			return err
		}
	}

	if s.ClearCartID != "" {
		if _, err := tx.Exec(ctx, deleteCartSQL, s.ClearCartID); err != nil {
			return fmt.Errorf("clearing cart %q: %w", s.ClearCartID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing settlement for order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID loads a single order. Returns order.ErrNotFound when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("loading order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	list, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return list, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		addressJSON   []byte
		method        string
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.RestaurantID, &itemsJSON,
		&o.Pricing.Subtotal, &o.Pricing.DeliveryFee, &o.Pricing.Tax,
		&o.Pricing.Discount, &o.Pricing.GrandTotal, &o.CouponCode, &addressJSON,
		&method, &status, &paymentStatus, &o.CreatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order address: %w", err)
	}
	o.PaymentMethod = order.PaymentMethod(method)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	return o, nil
}
