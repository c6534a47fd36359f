package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewOrderRepo(db), mock
}

var orderRowColumns = []string{"id", "order_number", "user_id", "shipping_address", "total_amount", "shipping_cost", "tax",
	"order_status", "payment_method", "payment_status", "payment_reference", "transaction_id", "created_at", "updated_at"}

func newTestOrder() *models.Order {
	orderID := uuid.New()

	return &models.Order{
		ID:          orderID,
		OrderNumber: "ORD-1718000000000-0A1B2C3D",
		UserID:      uuid.New(),
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Mug", Slug: "mug", Price: decimal.NewFromInt(20), Quantity: 2},
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Tee", Slug: "tee", Price: decimal.NewFromInt(10), Quantity: 1},
		},
		ShippingAddress: models.AddressSnapshot{Name: "Ada", Address: "1 Main St", City: "Lagos", Country: "NG"},
		PaymentDetails: models.PaymentDetails{
			Method:    "paystack",
			Status:    models.PaymentStatusPending,
			Reference: "PAY-1718000000000-9F8E7D6C",
		},
		OrderStatus:  models.OrderStatusPending,
		TotalAmount:  decimal.NewFromInt(54),
		ShippingCost: decimal.Zero,
		Tax:          decimal.NewFromInt(4),
	}
}

func TestCreateOrder(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()

	orderSQL := regexp.QuoteMeta(`INSERT INTO orders`)
	itemSQL := regexp.QuoteMeta(`INSERT INTO order_items`)

	t.Run("Success", func(t *testing.T) {
		order := newTestOrder()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(orderSQL).
			WithArgs(order.ID, order.OrderNumber, order.UserID, sqlmock.AnyArg(), order.TotalAmount, order.ShippingCost,
				order.Tax, order.OrderStatus, "paystack", models.PaymentStatusPending, order.PaymentDetails.Reference).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		for i, item := range order.Items {
			mock.ExpectExec(itemSQL).
				WithArgs(item.ID, order.ID, item.ProductID, item.Name, item.Slug, item.Image, item.Price, item.Quantity, i).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectCommit()

		err := repo.CreateOrder(ctx, order)

		require.NoError(t, err)
		assert.Equal(t, now, order.CreatedAt)
		assert.Equal(t, order.ID, order.Items[1].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Item Insert Rolls Back", func(t *testing.T) {
		order := newTestOrder()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(orderSQL).WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(itemSQL).WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		err := repo.CreateOrder(ctx, order)

		assert.ErrorContains(t, err, "failed to insert an order item")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Duplicate Reference", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectQuery(orderSQL).WillReturnError(errors.New(`pq: duplicate key value violates unique constraint`))
		mock.ExpectRollback()

		err := repo.CreateOrder(ctx, order)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOrderByReference(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()
	reference := "PAY-1718000000000-9F8E7D6C"

	orderSQL := regexp.QuoteMeta(`FROM orders WHERE payment_reference = $1 AND user_id = $2`)
	itemsSQL := regexp.QuoteMeta(`WHERE order_id = ANY($1::uuid[])`)

	t.Run("Success", func(t *testing.T) {
		orderID := uuid.New()
		productID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(orderSQL).WithArgs(reference, userID).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(orderID.String(), "ORD-1", userID.String(),
				[]byte(`{"name":"Ada","address":"1 Main St","city":"Lagos","country":"NG"}`), "54.00", "0.00", "4.00",
				"pending", "paystack", "pending", reference, nil, now, now))
		mock.ExpectQuery(itemsSQL).WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "slug", "image", "price", "quantity"}).
				AddRow(uuid.New().String(), orderID.String(), productID.String(), "Mug", "mug", "", "20.00", 2))

		order, err := repo.GetOrderByReference(ctx, reference, userID)

		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, "Lagos", order.ShippingAddress.City)
		assert.Equal(t, models.PaymentStatusPending, order.PaymentDetails.Status)
		assert.Empty(t, order.PaymentDetails.TransactionID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, productID, order.Items[0].ProductID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Foreign Or Unknown Reference", func(t *testing.T) {
		mock.ExpectQuery(orderSQL).WithArgs(reference, userID).WillReturnError(sql.ErrNoRows)

		order, err := repo.GetOrderByReference(ctx, reference, userID)

		assert.Nil(t, order)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFulfillPayment(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()

	paymentSQL := regexp.QuoteMeta(`WHERE id = $4 AND payment_status <> $1`)
	stockSQL := regexp.QuoteMeta(`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2`)
	cartSQL := regexp.QuoteMeta(`DELETE FROM carts WHERE user_id = $1`)

	t.Run("Success - Payment, Stock And Cart Commit Together", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectExec(paymentSQL).
			WithArgs(models.PaymentStatusSuccess, models.OrderStatusProcessing, "txn_1", order.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WithArgs(2, order.Items[0].ProductID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WithArgs(1, order.Items[1].ProductID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(cartSQL).WithArgs(order.UserID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		transitioned, err := repo.FulfillPayment(ctx, order, "txn_1")

		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted Product Is Skipped", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectExec(paymentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WithArgs(2, order.Items[0].ProductID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(stockSQL).WithArgs(1, order.Items[1].ProductID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(cartSQL).WithArgs(order.UserID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		transitioned, err := repo.FulfillPayment(ctx, order, "txn_1")

		require.NoError(t, err)
		assert.True(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Paid Changes Nothing", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectExec(paymentSQL).
			WithArgs(models.PaymentStatusSuccess, models.OrderStatusProcessing, "txn_1", order.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		transitioned, err := repo.FulfillPayment(ctx, order, "txn_1")

		require.NoError(t, err)
		assert.False(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Stock Update Rolls Back Payment", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectExec(paymentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WithArgs(2, order.Items[0].ProductID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WithArgs(1, order.Items[1].ProductID).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		transitioned, err := repo.FulfillPayment(ctx, order, "txn_1")

		assert.ErrorContains(t, err, "failed to decrement stock")
		assert.False(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Cart Delete Rolls Back Payment", func(t *testing.T) {
		order := newTestOrder()

		mock.ExpectBegin()
		mock.ExpectExec(paymentSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(stockSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(cartSQL).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		transitioned, err := repo.FulfillPayment(ctx, order, "txn_1")

		assert.ErrorContains(t, err, "failed to delete cart")
		assert.False(t, transitioned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOrderItemsKeepCartOrder(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()
	orderID, userID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(orderID.String(), "ORD-1", userID.String(),
			[]byte(`{"name":"Ada"}`), "54.00", "0.00", "4.00", "pending", "paystack", "pending", "PAY-1", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY order_id, position`)).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "slug", "image", "price", "quantity"}).
			AddRow(uuid.New().String(), orderID.String(), uuid.New().String(), "Tee", "tee", "", "10.00", 1).
			AddRow(uuid.New().String(), orderID.String(), uuid.New().String(), "Mug", "mug", "", "20.00", 2))

	order, err := repo.GetOrderByID(ctx, orderID)

	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Tee", order.Items[0].Name)
	assert.Equal(t, "Mug", order.Items[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()
	orderID := uuid.New()

	expectedSQL := regexp.QuoteMeta(`UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2`)

	mock.ExpectExec(expectedSQL).WithArgs(models.OrderStatusShipped, orderID).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped))

	mock.ExpectExec(expectedSQL).WithArgs(models.OrderStatusShipped, orderID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateOrderStatus(ctx, orderID, models.OrderStatusShipped), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersByUser(t *testing.T) {
	repo, mock := setupOrderRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM orders`)).
		WithArgs(&userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC`)).
		WithArgs(&userID, 10, 0).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	orders, total, err := repo.ListOrdersByUser(ctx, userID, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
