package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront/internal/testutils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// setupCartTest -> creates common test dependencies
func setupCartTest(t *testing.T) (*mocks.CartService, *handlers.CartHandler) {
	cartService := mocks.NewCartService(t)
	return cartService, handlers.NewCartHandler(cartService)
}

func TestGetCart(t *testing.T) {
	t.Run("Success - Retrieve Cart", func(t *testing.T) {
		cartService, h := setupCartTest(t)
		userID := uuid.New()

		cart := &models.Cart{
			ID:     uuid.New(),
			UserID: userID,
			Items: []models.CartItem{
				{ProductID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(20)},
			},
			TotalAmount: decimal.NewFromInt(40),
		}
		cartService.On("GetCart", mock.Anything, userID).Return(cart, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		rr := httptest.NewRecorder()

		h.GetCart().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Cart
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Len(t, got.Items, 1)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(40)))
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		_, h := setupCartTest(t)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/cart", nil, nil)
		rr := httptest.NewRecorder()

		h.GetCart().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusUnauthorized, appErrors.ErrCodeUnauthorized)
	})
}

func TestAddItem(t *testing.T) {
	t.Run("Success - Item Added", func(t *testing.T) {
		cartService, h := setupCartTest(t)
		userID, productID := uuid.New(), uuid.New()

		body := models.AddItemRequest{ProductID: productID, Quantity: 2}
		cart := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 2}}}

		cartService.On("AddItem", mock.Anything, userID, &body).Return(cart, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", jsonBody(t, body), userID, nil)
		rr := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Failure - Insufficient Stock", func(t *testing.T) {
		cartService, h := setupCartTest(t)
		userID := uuid.New()

		cartService.On("AddItem", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.BadRequestError("Insufficient stock for Desk Lamp. Only 1 available")).Once()

		body := models.AddItemRequest{ProductID: uuid.New(), Quantity: 5}
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", jsonBody(t, body), userID, nil)
		rr := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rr, req)

		resp := assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeBadRequest)
		assert.Equal(t, "Insufficient stock for Desk Lamp. Only 1 available", resp.Error.Message)
	})

	t.Run("Failure - Missing Product ID", func(t *testing.T) {
		_, h := setupCartTest(t)

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"quantity":1}`), uuid.New(), nil)
		rr := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeValidation)
	})

	t.Run("Failure - Malformed JSON", func(t *testing.T) {
		_, h := setupCartTest(t)

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart", strings.NewReader(`{"productId":`), uuid.New(), nil)
		rr := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeBadRequest)
	})
}

func TestUpdateQuantity(t *testing.T) {
	t.Run("Success - Zero Removes Line", func(t *testing.T) {
		cartService, h := setupCartTest(t)
		userID, productID := uuid.New(), uuid.New()

		cartService.On("UpdateQuantity", mock.Anything, userID, mock.MatchedBy(func(r *models.UpdateCartItemRequest) bool {
			return r.ProductID == productID && r.Quantity == 0
		})).Return(&models.Cart{UserID: userID, Items: []models.CartItem{}}, nil).Once()

		body := models.UpdateCartItemRequest{ProductID: productID, Quantity: 0}
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/cart", jsonBody(t, body), userID, nil)
		rr := httptest.NewRecorder()

		h.UpdateQuantity().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Cart
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Empty(t, got.Items)
	})

	t.Run("Failure - Item Not In Cart", func(t *testing.T) {
		cartService, h := setupCartTest(t)
		userID := uuid.New()

		cartService.On("UpdateQuantity", mock.Anything, userID, mock.Anything).
			Return(nil, appErrors.NotFoundError("Item not found in cart")).Once()

		body := models.UpdateCartItemRequest{ProductID: uuid.New(), Quantity: 3}
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/cart", jsonBody(t, body), userID, nil)
		rr := httptest.NewRecorder()

		h.UpdateQuantity().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusNotFound, appErrors.ErrCodeNotFound)
	})
}

func TestClearCart(t *testing.T) {
	cartService, h := setupCartTest(t)
	userID := uuid.New()

	cartService.On("ClearCart", mock.Anything, userID).Return(nil).Once()

	req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/cart", nil, userID, nil)
	rr := httptest.NewRecorder()

	h.ClearCart().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cart cleared successfully")
}
