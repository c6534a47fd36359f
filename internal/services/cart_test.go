package service_test

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartServiceTest(t *testing.T) (service.CartService, *mocks.CartRepository, *mocks.ProductRepository) {
	mockCartRepo := mocks.NewCartRepository(t)
	mockProductRepo := mocks.NewProductRepository(t)
	return service.NewCartService(mockCartRepo, mockProductRepo), mockCartRepo, mockProductRepo
}

func TestGetCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("No cart yields an empty view", func(t *testing.T) {
		cartService, mockCartRepo, _ := setupCartServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(nil, repository.ErrNotFound).Once()

		cart, err := cartService.GetCart(ctx, userID)

		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
		assert.Equal(t, userID, cart.UserID)
		assert.True(t, cart.TotalAmount.IsZero())
	})

	t.Run("Attaches products and totals lines", func(t *testing.T) {
		cartService, mockCartRepo, mockProductRepo := setupCartServiceTest(t)
		mugID, teaID := uuid.New(), uuid.New()

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(&models.Cart{
			UserID: userID,
			Items: []models.CartItem{
				{ProductID: mugID, Quantity: 2, Price: d("12.50")},
				{ProductID: teaID, Quantity: 1, Price: d("4.25")},
			},
		}, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, mugID).Return(&models.Product{ID: mugID, Name: "Mug"}, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, teaID).Return(nil, repository.ErrNotFound).Once()

		cart, err := cartService.GetCart(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, "Mug", cart.Items[0].Product.Name)
		assert.Nil(t, cart.Items[1].Product)
		assert.True(t, d("29.25").Equal(cart.TotalAmount))
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	product := &models.Product{ID: productID, Name: "Mug", Price: d("12.50"), Stock: 3, IsActive: true}

	t.Run("Missing quantity defaults to one", func(t *testing.T) {
		cartService, mockCartRepo, mockProductRepo := setupCartServiceTest(t)

		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil)
		mockCartRepo.On("UpsertItem", ctx, userID, productID, 1, product.Price).Return(nil).Once()
		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(&models.Cart{
			UserID: userID,
			Items:  []models.CartItem{{ProductID: productID, Quantity: 1, Price: product.Price}},
		}, nil).Once()

		cart, err := cartService.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID})

		require.NoError(t, err)
		assert.Len(t, cart.Items, 1)
		assert.True(t, d("12.50").Equal(cart.TotalAmount))
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		cartService, _, mockProductRepo := setupCartServiceTest(t)

		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()

		_, err := cartService.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 4})

		requireAppError(t, err, appErrors.ErrCodeBadRequest, "Insufficient stock for Mug. Only 3 available")
	})

	t.Run("Inactive product", func(t *testing.T) {
		cartService, _, mockProductRepo := setupCartServiceTest(t)

		mockProductRepo.On("GetProductByID", ctx, productID).Return(&models.Product{ID: productID, Stock: 10}, nil).Once()

		_, err := cartService.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 1})

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Product not found")
	})

	t.Run("Upsert failure", func(t *testing.T) {
		cartService, mockCartRepo, mockProductRepo := setupCartServiceTest(t)

		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()
		mockCartRepo.On("UpsertItem", ctx, userID, productID, 2, product.Price).Return(errors.New("db down")).Once()

		_, err := cartService.AddItem(ctx, userID, &models.AddItemRequest{ProductID: productID, Quantity: 2})

		requireAppError(t, err, appErrors.ErrCodeDatabaseError, "Failed to add item to cart")
	})
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	product := &models.Product{ID: productID, Name: "Mug", Price: d("12.50"), Stock: 5, IsActive: true}
	existing := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 1, Price: product.Price}}}

	t.Run("Zero removes the line", func(t *testing.T) {
		cartService, mockCartRepo, _ := setupCartServiceTest(t)

		mockCartRepo.On("RemoveItem", ctx, userID, productID).Return(nil).Once()
		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(nil, repository.ErrNotFound).Once()

		cart, err := cartService.UpdateQuantity(ctx, userID, &models.UpdateCartItemRequest{ProductID: productID, Quantity: 0})

		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("Sets quantity", func(t *testing.T) {
		cartService, mockCartRepo, mockProductRepo := setupCartServiceTest(t)
		updated := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 4, Price: product.Price}}}

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(existing, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil)
		mockCartRepo.On("SetItemQuantity", ctx, userID, productID, 4).Return(nil).Once()
		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(updated, nil).Once()

		cart, err := cartService.UpdateQuantity(ctx, userID, &models.UpdateCartItemRequest{ProductID: productID, Quantity: 4})

		require.NoError(t, err)
		assert.True(t, d("50").Equal(cart.TotalAmount))
	})

	t.Run("Line not in cart", func(t *testing.T) {
		cartService, mockCartRepo, _ := setupCartServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(existing, nil).Once()

		_, err := cartService.UpdateQuantity(ctx, userID, &models.UpdateCartItemRequest{ProductID: uuid.New(), Quantity: 2})

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Item not found in cart")
	})

	t.Run("Removing a missing line", func(t *testing.T) {
		cartService, mockCartRepo, _ := setupCartServiceTest(t)

		mockCartRepo.On("RemoveItem", ctx, userID, productID).Return(repository.ErrNotFound).Once()

		_, err := cartService.UpdateQuantity(ctx, userID, &models.UpdateCartItemRequest{ProductID: productID})

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Item not found in cart")
	})

	t.Run("More than in stock", func(t *testing.T) {
		cartService, mockCartRepo, mockProductRepo := setupCartServiceTest(t)

		mockCartRepo.On("GetCartByUserID", ctx, userID).Return(existing, nil).Once()
		mockProductRepo.On("GetProductByID", ctx, productID).Return(product, nil).Once()

		_, err := cartService.UpdateQuantity(ctx, userID, &models.UpdateCartItemRequest{ProductID: productID, Quantity: 6})

		requireAppError(t, err, appErrors.ErrCodeBadRequest, "Insufficient stock for Mug. Only 5 available")
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	cartService, mockCartRepo, _ := setupCartServiceTest(t)

	mockCartRepo.On("DeleteCart", ctx, userID).Return(nil).Once()

	assert.NoError(t, cartService.ClearCart(ctx, userID))
}
