package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the gateway adapter and verifier for online payments.
type Service struct {
	payments Repository
	gateway  Gateway
	signer   *Signer
}

// NewService creates a payment Service.
func NewService(payments Repository, gateway Gateway, signer *Signer) *Service {
	return &Service{
		payments: payments,
		gateway:  gateway,
		signer:   signer,
	}
}

// Intent is the result of opening a payment with the gateway.
type Intent struct {
	PaymentID       string
	GatewayOrderRef string
	// AmountMinor is the amount in integer minor units (e.g. paise),
	// as the gateway expects it.
	AmountMinor int64
}

// Create opens a gateway intent for amount (decimal major units) and
// persists a local payment record in the created state. The major-to-minor
// conversion happens here, exactly once. A gateway failure is returned as a
// retryable GatewayError and leaves no local record behind.
func (s *Service) Create(ctx context.Context, userID string, amount decimal.Decimal) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	amountMinor := amount.Round(2).Shift(2).IntPart()

	id := uuid.New().String()
	orderRef, err := s.gateway.CreateIntent(ctx, amountMinor, id)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:              id,
		UserID:          userID,
		Amount:          amount.Round(2),
		GatewayOrderRef: orderRef,
		Status:          StatusCreated,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "persist payment")
	}

	return &Intent{
		PaymentID:       p.ID,
		GatewayOrderRef: orderRef,
		AmountMinor:     amountMinor,
	}, nil
}

// VerifyRequest is a gateway callback to validate.
type VerifyRequest struct {
	GatewayOrderRef   string
	GatewayPaymentRef string
	Signature         string
	// OrderID links the payment to its order; optional on retried
	// callbacks where the link was already recorded.
	OrderID string
}

// Result reports the outcome of a successful verification.
type Result struct {
	PaymentID string
	OrderID   string
	Status    Status
}

// Verify validates a gateway callback and finalizes payment state.
//
// Callbacks may be retried: a payment already in the paid state returns
// the previously recorded result without recomputing or re-clearing
// anything. A signature mismatch marks the payment failed and leaves the
// order untouched. On a match the payment, order, and cart writes land in
// one repository transaction.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	p, err := s.payments.GetByOrderRef(ctx, req.GatewayOrderRef)
	if err != nil {
		return nil, err
	}

	if p.Status == StatusPaid {
		return &Result{PaymentID: p.ID, OrderID: p.OrderID, Status: StatusPaid}, nil
	}

	if !s.signer.Check(req.GatewayOrderRef, req.GatewayPaymentRef, req.Signature) {
		zctx.From(ctx).Warn("payment signature mismatch",
			zap.String("payment_id", p.ID),
			zap.String("gateway_order_ref", req.GatewayOrderRef),
			zap.String("gateway_payment_ref", req.GatewayPaymentRef),
		)
		if err := s.payments.MarkFailed(ctx, p.ID, req.GatewayPaymentRef, req.Signature); err != nil {
			return nil, errors.Wrap(err, "mark payment failed")
		}
		return nil, ErrSignatureMismatch
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = p.OrderID
	}

	err = s.payments.SettlePaid(ctx, p.ID, PaidRecord{
		OrderID:           orderID,
		GatewayPaymentRef: req.GatewayPaymentRef,
		GatewaySignature:  req.Signature,
	})
	if err != nil {
		// A concurrent callback won the transition; report its result.
		if errors.Is(err, ErrAlreadyPaid) {
			settled, getErr := s.payments.GetByOrderRef(ctx, req.GatewayOrderRef)
			if getErr != nil {
				return nil, getErr
			}
			return &Result{PaymentID: settled.ID, OrderID: settled.OrderID, Status: settled.Status}, nil
		}
		return nil, errors.Wrap(err, "settle payment")
	}

	return &Result{PaymentID: p.ID, OrderID: orderID, Status: StatusPaid}, nil
}
