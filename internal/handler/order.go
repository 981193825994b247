package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-faster/errors"

	"github.com/mealcart/checkout/internal/domain/order"
)

type orderItemResponse struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	RestaurantID  string              `json:"restaurantId"`
	Items         []orderItemResponse `json:"items"`
	Subtotal      float64             `json:"subtotal"`
	DeliveryFee   float64             `json:"deliveryFee"`
	Tax           float64             `json:"tax"`
	Discount      float64             `json:"discount"`
	GrandTotal    float64             `json:"grandTotal"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Address       order.Address       `json:"address"`
	PaymentMethod string              `json:"paymentMethod"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"paymentStatus"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice.InexactFloat64(),
			Quantity:   it.Quantity,
		}
	}
	return orderResponse{
		ID:            o.ID,
		RestaurantID:  o.RestaurantID,
		Items:         items,
		Subtotal:      o.Pricing.Subtotal.InexactFloat64(),
		DeliveryFee:   o.Pricing.DeliveryFee.InexactFloat64(),
		Tax:           o.Pricing.Tax.InexactFloat64(),
		Discount:      o.Pricing.Discount.InexactFloat64(),
		GrandTotal:    o.Pricing.GrandTotal.InexactFloat64(),
		CouponCode:    o.CouponCode,
		Address:       o.Address,
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
	}
}

type createOrderRequest struct {
	Address       order.Address `json:"address"`
	PaymentMethod string        `json:"paymentMethod"`
	CouponCode    string        `json:"couponCode"`
}

func (req *createOrderRequest) Bind(*http.Request) error {
	switch {
	case req.Address.Street == "" || req.Address.City == "":
		return errors.New("delivery address is required")
	case req.PaymentMethod == "":
		return errors.New("paymentMethod is required")
	}
	return nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Create(r.Context(), UserID(r.Context()), order.CreateRequest{
		Address:       req.Address,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), UserID(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	render.JSON(w, r, resp)
}
