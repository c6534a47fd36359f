package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string, userID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Order, int, error)
	ListOrders(ctx context.Context, page, size int) ([]*models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	FulfillPayment(ctx context.Context, order *models.Order, transactionID string) (bool, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepo(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, order_number, user_id, shipping_address, total_amount, shipping_cost, tax, order_status,
	payment_method, payment_status, payment_reference, transaction_id, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}

	var address []byte
	var transactionID sql.NullString

	err := row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &address, &order.TotalAmount, &order.ShippingCost,
		&order.Tax, &order.OrderStatus, &order.PaymentDetails.Method, &order.PaymentDetails.Status,
		&order.PaymentDetails.Reference, &transactionID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
	}

	order.PaymentDetails.TransactionID = transactionID.String
	order.Items = []models.OrderItem{}

	return order, nil
}

// CreateOrder inserts the order and its items in one transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) (err error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO orders (id, order_number, user_id, shipping_address, total_amount, shipping_cost, tax, order_status, payment_method, payment_status, payment_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, query, order.ID, order.OrderNumber, order.UserID, address, order.TotalAmount,
		order.ShippingCost, order.Tax, order.OrderStatus, order.PaymentDetails.Method, order.PaymentDetails.Status,
		order.PaymentDetails.Reference).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", mapError(err))
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, slug, image, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if _, err = tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.Name, item.Slug, item.Image, item.Price, item.Quantity, i); err != nil {
			return fmt.Errorf("failed to insert an order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

func (r *orderRepository) getOne(ctx context.Context, where string, args ...any) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, `SELECT `+orderColumns+` FROM orders WHERE `+where, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to get the order: %w", mapError(err))
	}

	if err := r.attachItems(dbCtx, []*models.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *orderRepository) GetOrderByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	return r.getOne(ctx, `id = $1 AND user_id = $2`, id, userID)
}

// GetOrderByReference only matches orders owned by userID, so a foreign
// reference reads the same as an unknown one.
func (r *orderRepository) GetOrderByReference(ctx context.Context, reference string, userID uuid.UUID) (*models.Order, error) {
	return r.getOne(ctx, `payment_reference = $1 AND user_id = $2`, reference, userID)
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Order, int, error) {
	return r.list(ctx, &userID, page, size)
}

func (r *orderRepository) ListOrders(ctx context.Context, page, size int) ([]*models.Order, int, error) {
	return r.list(ctx, nil, page, size)
}

func (r *orderRepository) list(ctx context.Context, userID *uuid.UUID, page, size int) ([]*models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE ($1::uuid IS NULL OR user_id = $1)`
	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::uuid IS NULL OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, userID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over the rows: %w", err)
	}

	if err := r.attachItems(dbCtx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// attachItems loads the items of every order with one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		byID[o.ID] = o
	}

	query := `
		SELECT id, order_id, product_id, name, slug, image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get the order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Slug, &item.Image, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over the rows: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return requireAffected(result, "order")
}

// FulfillPayment marks the order's payment successful, takes each line's
// quantity off stock and deletes the buyer's cart in one transaction. It
// reports whether this call performed the transition; when the payment was
// already successful nothing is changed and false is returned. Lines whose
// product no longer exists are skipped. Stock may go negative when concurrent
// orders oversell.
func (r *orderRepository) FulfillPayment(ctx context.Context, order *models.Order, transactionID string) (transitioned bool, err error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil || !transitioned {
			_ = tx.Rollback()
		}
	}()

	paymentQuery := `
		UPDATE orders
		SET payment_status = $1, order_status = $2, transaction_id = $3, updated_at = NOW()
		WHERE id = $4 AND payment_status <> $1
	`

	result, err := tx.ExecContext(dbCtx, paymentQuery, models.PaymentStatusSuccess, models.OrderStatusProcessing, transactionID, order.ID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment success: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows != 1 {
		return false, nil
	}

	stockQuery := `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2`

	for _, item := range order.Items {
		if _, err = tx.ExecContext(dbCtx, stockQuery, item.Quantity, item.ProductID); err != nil {
			return false, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if _, err = tx.ExecContext(dbCtx, `DELETE FROM carts WHERE user_id = $1`, order.UserID); err != nil {
		return false, fmt.Errorf("failed to delete cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit payment: %w", err)
	}

	return true, nil
}
