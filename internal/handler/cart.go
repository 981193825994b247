package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/mealcart/checkout/internal/domain/cart"
)

type cartItemResponse struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	Category   string  `json:"category,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

type cartResponse struct {
	ID            string             `json:"id"`
	RestaurantID  string             `json:"restaurantId"`
	Items         []cartItemResponse `json:"items"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalPrice    float64            `json:"totalPrice"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Image:      it.Image,
			Category:   it.Category,
			Price:      it.UnitPrice.InexactFloat64(),
			Quantity:   it.Quantity,
		}
	}
	return cartResponse{
		ID:            c.ID,
		RestaurantID:  c.RestaurantID,
		Items:         items,
		TotalQuantity: c.TotalQuantity(),
		TotalPrice:    c.Subtotal().InexactFloat64(),
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toCartResponse(c))
}

type addCartItemRequest struct {
	MenuItemID   string  `json:"menuItemId"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	RestaurantID string  `json:"restaurantId"`
}

func (req *addCartItemRequest) Bind(*http.Request) error {
	switch {
	case req.MenuItemID == "":
		return errors.New("menuItemId is required")
	case req.Name == "":
		return errors.New("name is required")
	case req.RestaurantID == "":
		return errors.New("restaurantId is required")
	case req.Price < 0:
		return errors.New("price must not be negative")
	case req.Quantity < 1:
		return errors.New("quantity must be at least 1")
	}
	return nil
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.carts.Add(r.Context(), UserID(r.Context()), cart.AddRequest{
		RestaurantID: req.RestaurantID,
		Item: cart.Item{
			MenuItemID: req.MenuItemID,
			Name:       req.Name,
			Image:      req.Image,
			Category:   req.Category,
			UnitPrice:  decimal.NewFromFloat(req.Price),
			Quantity:   req.Quantity,
		},
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toCartResponse(c))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (req *updateCartItemRequest) Bind(*http.Request) error {
	if req.Quantity < 1 {
		return cart.ErrInvalidQuantity
	}
	return nil
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := render.Bind(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), UserID(r.Context()), chi.URLParam(r, "menuItemID"), req.Quantity)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, toCartResponse(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Remove(r.Context(), UserID(r.Context()), chi.URLParam(r, "menuItemID"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	if c == nil {
		render.JSON(w, r, map[string]string{"message": "item removed and cart deleted"})
		return
	}
	render.JSON(w, r, toCartResponse(c))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), UserID(r.Context())); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "cart cleared"})
}
