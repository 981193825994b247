package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	"github.com/mealcart/checkout/internal/domain/cart"
)

const (
	getCartSQL = `SELECT id, user_id, restaurant_id, created_at, updated_at
		FROM carts WHERE user_id = $1`

	getCartItemsSQL = `SELECT menu_item_id, name, image, category, unit_price, quantity
		FROM cart_items WHERE cart_id = $1 ORDER BY added_at, menu_item_id`

	insertCartSQL = `INSERT INTO carts (id, user_id, restaurant_id)
		VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING`

	// Concurrent adds of the same menu item must not lose an update, so
	// the quantity increment happens inside the upsert itself.
	upsertCartItemSQL = `INSERT INTO cart_items
			(cart_id, menu_item_id, name, image, category, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cart_id, menu_item_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	updateCartItemQtySQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND menu_item_id = $2`

	removeCartItemSQL = `DELETE FROM cart_items
		WHERE cart_id = $1 AND menu_item_id = $2`

	countCartItemsSQL = `SELECT count(*) FROM cart_items WHERE cart_id = $1`

	touchCartSQL = `UPDATE carts SET updated_at = now() WHERE id = $1`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get loads the user's cart with its lines. Returns cart.ErrNotFound when
// the user has no cart.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(
		&c.ID, &c.UserID, &c.RestaurantID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("loading cart for user %q: %w", userID, err)
	}

	rows, err := r.pool.Query(ctx, getCartItemsSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("loading cart items for user %q: %w", userID, err)
	}
	items, err := pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("loading cart items for user %q: %w", userID, err)
	}
	c.Items = items

	return &c, nil
}

// GetOrCreate returns the user's cart, creating an empty one bound to
// restaurantID when none exists. The insert is conflict-tolerant, so two
// concurrent first adds converge on a single cart row.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID, restaurantID string) (*cart.Cart, error) {
	_, err := r.pool.Exec(ctx, insertCartSQL, uuid.New().String(), userID, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("creating cart for user %q: %w", userID, err)
	}
	return r.Get(ctx, userID)
}

// AddItem upserts a cart line, atomically incrementing the quantity when
// the menu item is already present.
func (r *CartRepository) AddItem(ctx context.Context, cartID string, item cart.Item) error {
	_, err := r.pool.Exec(ctx, upsertCartItemSQL,
		cartID, item.MenuItemID, item.Name, item.Image, item.Category, item.UnitPrice, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upserting cart item %q: %w", item.MenuItemID, err)
	}
	_, err = r.pool.Exec(ctx, touchCartSQL, cartID)
	if err != nil {
		return fmt.Errorf("touching cart %q: %w", cartID, err)
	}
	return nil
}

// UpdateItemQuantity sets the quantity of an existing line. Returns
// cart.ErrItemNotFound when no such line exists.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, menuItemID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, updateCartItemQtySQL, cartID, menuItemID, quantity)
	if err != nil {
		return fmt.Errorf("updating quantity of item %q: %w", menuItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	_, err = r.pool.Exec(ctx, touchCartSQL, cartID)
	if err != nil {
		return fmt.Errorf("touching cart %q: %w", cartID, err)
	}
	return nil
}

// RemoveItem deletes a line and reports how many lines remain, so the
// service can delete a cart that has just become empty.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, menuItemID string) (int, error) {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, cartID, menuItemID)
	if err != nil {
		return 0, fmt.Errorf("removing cart item %q: %w", menuItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, cart.ErrItemNotFound
	}

	var remaining int
	if err := r.pool.QueryRow(ctx, countCartItemsSQL, cartID).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("counting cart items: %w", err)
	}
	return remaining, nil
}

// Delete removes the cart; its lines go with it via ON DELETE CASCADE.
func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, cartID); err != nil {
		return fmt.Errorf("deleting cart %q: %w", cartID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(&it.MenuItemID, &it.Name, &it.Image, &it.Category, &it.UnitPrice, &it.Quantity)
	return it, err
}
