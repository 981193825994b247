package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mealcart/checkout/internal/domain/payment"
)

type createPaymentRequest struct {
	Amount float64 `json:"amount"`
}

func (req *createPaymentRequest) Bind(*http.Request) error {
	if req.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

type createPaymentResponse struct {
	PaymentID       string `json:"paymentId"`
	GatewayOrderRef string `json:"gatewayOrderRef"`
	AmountMinor     int64  `json:"amountMinor"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	intent, err := h.payments.Create(r.Context(), UserID(r.Context()), decimal.NewFromFloat(req.Amount))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createPaymentResponse{
		PaymentID:       intent.PaymentID,
		GatewayOrderRef: intent.GatewayOrderRef,
		AmountMinor:     intent.AmountMinor,
	})
}

type verifyPaymentRequest struct {
	GatewayOrderRef   string `json:"gatewayOrderRef"`
	GatewayPaymentRef string `json:"gatewayPaymentRef"`
	Signature         string `json:"signature"`
	OrderID           string `json:"orderId"`
}

func (req *verifyPaymentRequest) Bind(*http.Request) error {
	switch {
	case req.GatewayOrderRef == "":
		return errors.New("gatewayOrderRef is required")
	case req.GatewayPaymentRef == "":
		return errors.New("gatewayPaymentRef is required")
	case req.Signature == "":
		return errors.New("signature is required")
	}
	return nil
}

type verifyPaymentResponse struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId,omitempty"`
	Status    string `json:"status"`
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.payments.Verify(r.Context(), payment.VerifyRequest{
		GatewayOrderRef:   req.GatewayOrderRef,
		GatewayPaymentRef: req.GatewayPaymentRef,
		Signature:         req.Signature,
		OrderID:           req.OrderID,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, verifyPaymentResponse{
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		Status:    string(result.Status),
	})
}
