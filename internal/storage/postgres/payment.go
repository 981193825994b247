package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mealcart/checkout/internal/domain/payment"
)

const (
	insertPaymentSQL = `INSERT INTO payments
			(id, user_id, amount, gateway_order_ref, status)
		VALUES ($1, $2, $3, $4, $5)`

	getPaymentByOrderRefSQL = `SELECT id, user_id, COALESCE(order_id, ''), amount,
			gateway_order_ref, gateway_payment_ref, gateway_signature, status,
			created_at, updated_at
		FROM payments WHERE gateway_order_ref = $1`

	// Never clobber a payment that already verified; failed callbacks for
	// a paid payment are stale retries.
	markPaymentFailedSQL = `UPDATE payments
		SET status = 'failed', gateway_payment_ref = $2, gateway_signature = $3,
		    updated_at = now()
		WHERE id = $1 AND status <> 'paid'`

	// The created-to-paid transition is conditional so at most one of two
	// concurrent callbacks can win it.
	markPaymentPaidSQL = `UPDATE payments
		SET status = 'paid', order_id = NULLIF($2, ''), gateway_payment_ref = $3,
		    gateway_signature = $4, updated_at = now()
		WHERE id = $1 AND status <> 'paid'`

	setOrderPaymentSuccessSQL = `UPDATE orders SET payment_status = 'SUCCESS' WHERE id = $1`

	deleteCartByUserSQL = `DELETE FROM carts WHERE user_id = $1`

	getPaymentUserSQL = `SELECT user_id FROM payments WHERE id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment record in the created state.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, insertPaymentSQL,
		p.ID, p.UserID, p.Amount, p.GatewayOrderRef, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("inserting payment %q: %w", p.ID, err)
	}
	return nil
}

// GetByOrderRef loads a payment by its gateway order reference. Returns
// payment.ErrNotFound when absent.
func (r *PaymentRepository) GetByOrderRef(ctx context.Context, orderRef string) (*payment.Payment, error) {
	var (
		p      payment.Payment
		status string
	)
	err := r.pool.QueryRow(ctx, getPaymentByOrderRefSQL, orderRef).Scan(
		&p.ID, &p.UserID, &p.OrderID, &p.Amount,
		&p.GatewayOrderRef, &p.GatewayPaymentRef, &p.GatewaySignature, &status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("loading payment by order ref %q: %w", orderRef, err)
	}
	p.Status = payment.Status(status)
	return &p, nil
}

// MarkFailed records a signature mismatch for the payment. The linked
// order is deliberately untouched; the user may retry with a fresh intent.
func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID, gatewayPaymentRef, signature string) error {
	_, err := r.pool.Exec(ctx, markPaymentFailedSQL, paymentID, gatewayPaymentRef, signature)
	if err != nil {
		return fmt.Errorf("marking payment %q failed: %w", paymentID, err)
	}
	return nil
}

// SettlePaid transitions the payment to paid and applies the dependent
// order and cart writes in the same transaction. Returns
// payment.ErrAlreadyPaid when a concurrent callback already won the
// transition.
func (r *PaymentRepository) SettlePaid(ctx context.Context, paymentID string, rec payment.PaidRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, markPaymentPaidSQL,
		paymentID, rec.OrderID, rec.GatewayPaymentRef, rec.GatewaySignature,
	)
	if err != nil {
		return fmt.Errorf("marking payment %q paid: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrAlreadyPaid
	}

	if rec.OrderID != "" {
		if _, err := tx.Exec(ctx, setOrderPaymentSuccessSQL, rec.OrderID); err != nil {
			return fmt.Errorf("marking order %q paid: %w", rec.OrderID, err)
		}
	}

	var userID string
	if err := tx.QueryRow(ctx, getPaymentUserSQL, paymentID).Scan(&userID); err != nil {
		return fmt.Errorf("resolving payment %q owner: %w", paymentID, err)
	}
	if _, err := tx.Exec(ctx, deleteCartByUserSQL, userID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing settlement for payment %q: %w", paymentID, err)
	}
	return nil
}
