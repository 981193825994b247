// Package payment creates payment intents with the external gateway,
// persists local payment records, and verifies gateway callbacks.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment record.
type Status string

const (
	// StatusCreated means a gateway intent exists but no callback has
	// been verified yet.
	StatusCreated Status = "created"
	// StatusPaid means the callback signature verified successfully.
	StatusPaid Status = "paid"
	// StatusFailed means signature verification failed. Terminal for this
	// payment attempt; the order can be retried with a fresh intent.
	StatusFailed Status = "failed"
)

var (
	// ErrNotFound is returned when no payment matches the gateway order
	// reference.
	ErrNotFound = errors.New("payment not found")
	// ErrSignatureMismatch is returned when the supplied callback
	// signature does not match the recomputed one.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrAlreadyPaid is returned by the repository when a concurrent
	// callback won the created-to-paid transition.
	ErrAlreadyPaid = errors.New("payment already paid")
)

// GatewayError wraps a connectivity or provider failure. It is retryable
// by the caller; no local state transitions on it.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Payment is the local record mirroring one gateway intent. It is owned by
// one user and at most one order, and is mutated exactly once by Verify.
type Payment struct {
	ID                string
	UserID            string
	OrderID           string
	Amount            decimal.Decimal
	GatewayOrderRef   string
	GatewayPaymentRef string
	GatewaySignature  string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PaidRecord holds the fields written when a payment transitions to paid.
type PaidRecord struct {
	OrderID           string
	GatewayPaymentRef string
	GatewaySignature  string
}

// Gateway opens payment intents with the external provider. Amounts are in
// integer minor units; the conversion from decimal major units happens
// exactly once, before this boundary.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, receipt string) (orderRef string, err error)
}

// Repository defines persistence for payments. SettlePaid must apply the
// payment, order, and cart writes as one atomic unit, and must refuse the
// transition with ErrAlreadyPaid when the payment is no longer in the
// created state.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByOrderRef(ctx context.Context, orderRef string) (*Payment, error)
	// MarkFailed records a signature mismatch. The linked order is not
	// touched.
	MarkFailed(ctx context.Context, paymentID, gatewayPaymentRef, signature string) error
	// SettlePaid transitions the payment to paid, sets the linked order's
	// payment status to SUCCESS, and deletes the purchaser's cart, all in
	// one transaction.
	SettlePaid(ctx context.Context, paymentID string, rec PaidRecord) error
}
