// Package cart owns the single active cart per user and enforces the
// one-restaurant-per-cart rule.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when the user has no active cart or the
	// addressed line item is not in it.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when the cart exists but the menu item
	// is not one of its lines.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for quantity updates below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// RestaurantConflictError is returned when an item from one restaurant is
// added to a cart already bound to another. The caller must clear the cart
// explicitly; items are never merged across restaurants.
type RestaurantConflictError struct {
	CartRestaurantID string
	ItemRestaurantID string
}

func (e *RestaurantConflictError) Error() string {
	return fmt.Sprintf("cart is bound to restaurant %s, cannot add item from restaurant %s",
		e.CartRestaurantID, e.ItemRestaurantID)
}

// Item is a single cart line. Its restaurant is implicitly the cart's.
type Item struct {
	MenuItemID string
	Name       string
	Image      string
	Category   string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Cart is the user's active cart. Totals are derived from the lines on
// every read and never stored independently.
type Cart struct {
	ID           string
	UserID       string
	RestaurantID string
	Items        []Item
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalQuantity returns the sum of line quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Repository defines persistence operations for carts. AddItem must be
// atomic with respect to concurrent adds for the same user: the quantity
// increment happens at the storage layer, not as read-modify-write here.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	// GetOrCreate returns the user's cart, creating an empty one bound to
	// restaurantID when none exists.
	GetOrCreate(ctx context.Context, userID, restaurantID string) (*Cart, error)
	// AddItem upserts a line: inserting it, or atomically incrementing the
	// quantity when the menu item is already present.
	AddItem(ctx context.Context, cartID string, item Item) error
	// UpdateItemQuantity sets the quantity of an existing line.
	// Returns ErrItemNotFound when the line is absent.
	UpdateItemQuantity(ctx context.Context, cartID, menuItemID string, quantity int) error
	// RemoveItem deletes a line and reports how many lines remain.
	RemoveItem(ctx context.Context, cartID, menuItemID string) (remaining int, err error)
	// Delete removes the cart and all its lines.
	Delete(ctx context.Context, cartID string) error
}
