package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Service encapsulates cart business rules on top of a Repository.
type Service struct {
	carts Repository
}

// NewService creates a cart Service.
func NewService(carts Repository) *Service {
	return &Service{carts: carts}
}

// Get returns the user's current cart, or ErrNotFound when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddRequest holds the input for adding an item to the cart.
type AddRequest struct {
	RestaurantID string
	Item         Item
}

// Add puts an item into the user's cart. The first add creates a cart bound
// to the item's restaurant. Adding from a different restaurant fails with
// RestaurantConflictError; adding a menu item already in the cart increments
// its quantity at the storage layer.
func (s *Service) Add(ctx context.Context, userID string, req AddRequest) (*Cart, error) {
	if req.Item.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.GetOrCreate(ctx, userID, req.RestaurantID)
	if err != nil {
		return nil, errors.Wrap(err, "get or create cart")
	}

	if c.RestaurantID != req.RestaurantID {
		return nil, &RestaurantConflictError{
			CartRestaurantID: c.RestaurantID,
			ItemRestaurantID: req.RestaurantID,
		}
	}

	if err := s.carts.AddItem(ctx, c.ID, req.Item); err != nil {
		return nil, errors.Wrap(err, "add item")
	}

	return s.carts.Get(ctx, userID)
}

// UpdateQuantity sets the quantity of an existing cart line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, menuItemID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.UpdateItemQuantity(ctx, c.ID, menuItemID, quantity); err != nil {
		return nil, err
	}

	return s.carts.Get(ctx, userID)
}

// Remove deletes a line from the cart. When the last line is removed the
// cart itself is deleted rather than kept empty; Remove then returns
// (nil, nil).
func (s *Service) Remove(ctx context.Context, userID, menuItemID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.carts.RemoveItem(ctx, c.ID, menuItemID)
	if err != nil {
		return nil, err
	}

	if remaining == 0 {
		if err := s.carts.Delete(ctx, c.ID); err != nil {
			return nil, errors.Wrap(err, "delete emptied cart")
		}
		return nil, nil
	}

	return s.carts.Get(ctx, userID)
}

// Clear deletes the user's whole cart regardless of contents.
func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.Delete(ctx, c.ID)
}
