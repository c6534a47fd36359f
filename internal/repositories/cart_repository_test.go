package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRepoTest(t *testing.T) (repository.CartRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewCartRepo(db), mock
}

func TestGetCartByUserID(t *testing.T) {
	repo, mock := setupCartRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()
	cartID := uuid.New()
	now := time.Now()

	cartSQL := regexp.QuoteMeta(`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`)
	itemsSQL := regexp.QuoteMeta(`FROM cart_items WHERE cart_id = $1`)

	t.Run("Success", func(t *testing.T) {
		p1, p2 := uuid.New(), uuid.New()
		mock.ExpectQuery(cartSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at", "updated_at"}).AddRow(cartID.String(), userID.String(), now, now))
		mock.ExpectQuery(itemsSQL).WithArgs(cartID).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price", "created_at"}).
				AddRow(p1.String(), 2, "20.00", now).
				AddRow(p2.String(), 1, "5.50", now))

		cart, err := repo.GetCartByUserID(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, cartID, cart.ID)
		require.Len(t, cart.Items, 2)
		assert.Equal(t, p1, cart.Items[0].ProductID)
		assert.Equal(t, 2, cart.Items[0].Quantity)
		assert.True(t, cart.Items[1].Price.Equal(decimal.RequireFromString("5.5")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - No Cart", func(t *testing.T) {
		mock.ExpectQuery(cartSQL).WithArgs(userID).WillReturnError(sql.ErrNoRows)

		cart, err := repo.GetCartByUserID(ctx, userID)

		assert.Nil(t, cart)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertItem(t *testing.T) {
	repo, mock := setupCartRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	price := decimal.RequireFromString("20.00")

	// a single statement creates the cart and increments the line
	expectedSQL := regexp.QuoteMeta(`DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, price = EXCLUDED.price`)

	mock.ExpectExec(expectedSQL).
		WithArgs(sqlmock.AnyArg(), userID, productID, 3, price).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpsertItem(ctx, userID, productID, 3, price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetItemQuantity(t *testing.T) {
	repo, mock := setupCartRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	expectedSQL := regexp.QuoteMeta(`UPDATE cart_items SET quantity = $1 FROM carts`)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(expectedSQL).WithArgs(4, userID, productID).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetItemQuantity(ctx, userID, productID, 4))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Line Missing", func(t *testing.T) {
		mock.ExpectExec(expectedSQL).WithArgs(4, userID, productID).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetItemQuantity(ctx, userID, productID, 4), repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRemoveItemAndDeleteCart(t *testing.T) {
	repo, mock := setupCartRepoTest(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items USING carts`)).
		WithArgs(userID, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.RemoveItem(ctx, userID, productID))

	// deleting a cart that does not exist is fine
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM carts WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, repo.DeleteCart(ctx, userID))

	assert.NoError(t, mock.ExpectationsWereMet())
}
