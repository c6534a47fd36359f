package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartRepository keeps at most one cart per user. Line writes are single
// statements so concurrent adds for the same product never lose an update.
type CartRepository interface {
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int, price decimal.Decimal) error
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart := &models.Cart{}

	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", mapError(err))
	}

	itemsQuery := `
		SELECT product_id, quantity, price, created_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at, product_id
	`

	rows, err := r.DB.QueryContext(dbCtx, itemsQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []models.CartItem{}

	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over the rows: %w", err)
	}

	return cart, nil
}

// UpsertItem creates the cart on first use and adds quantity to the line for
// productID, inserting it when absent.
func (r *cartRepository) UpsertItem(ctx context.Context, userID, productID uuid.UUID, quantity int, price decimal.Decimal) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		WITH cart AS (
			INSERT INTO carts (id, user_id, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
			RETURNING id
		)
		INSERT INTO cart_items (cart_id, product_id, quantity, price, created_at)
		SELECT id, $3, $4, $5, NOW() FROM cart
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, price = EXCLUDED.price
	`

	if _, err := r.DB.ExecContext(dbCtx, query, uuid.New(), userID, productID, quantity, price); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_items SET quantity = $1
		FROM carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $2 AND cart_items.product_id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to set cart item quantity: %w", err)
	}

	return requireAffected(result, "cart item")
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM cart_items USING carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $1 AND cart_items.product_id = $2
	`

	result, err := r.DB.ExecContext(dbCtx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return requireAffected(result, "cart item")
}

// DeleteCart removes the cart and its lines. A user without a cart is not an error.
func (r *cartRepository) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if _, err := r.DB.ExecContext(dbCtx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	return nil
}
