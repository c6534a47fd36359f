package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func pendingOrder(userID uuid.UUID) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1760000000000-0A1B2C3D",
		UserID:      userID,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Name: "Desk Lamp", Slug: "desk-lamp", Price: decimal.NewFromInt(20), Quantity: 2},
		},
		PaymentDetails: models.PaymentDetails{Method: "paystack", Status: models.PaymentStatusPending, Reference: "PAY-1760000000000-0A1B2C3D"},
		OrderStatus:    models.OrderStatusPending,
		TotalAmount:    decimal.NewFromInt(54),
		ShippingCost:   decimal.NewFromInt(10),
		Tax:            decimal.NewFromInt(4),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// TestCreateOrder tests the CreateOrder handler
func TestCreateOrder(t *testing.T) {
	t.Run("Success - Order Created", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)
		userID, addressID := uuid.New(), uuid.New()

		order := pendingOrder(userID)
		checkout := &models.CheckoutResponse{
			Order:      order,
			PaymentURL: "https://checkout.paystack.com/abc",
			Reference:  order.PaymentDetails.Reference,
		}

		orderService.On("CreateOrder", mock.Anything, userID, &models.CreateOrderRequest{ShippingAddressID: addressID}).
			Return(checkout, nil).Once()

		body := models.CreateOrderRequest{ShippingAddressID: addressID}
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", jsonBody(t, body), userID, nil)
		rr := httptest.NewRecorder()

		h.CreateOrder().ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var got models.CheckoutResponse
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, checkout.PaymentURL, got.PaymentURL)
		assert.Equal(t, checkout.Reference, got.Reference)
		require.NotNil(t, got.Order)
		assert.Equal(t, order.ID, got.Order.ID)
		assert.True(t, got.Order.TotalAmount.Equal(decimal.NewFromInt(54)))
		assert.Equal(t, models.PaymentStatusPending, got.Order.PaymentDetails.Status)
	})

	t.Run("Failure - Missing Shipping Address", func(t *testing.T) {
		h := handlers.NewOrderHandler(mocks.NewOrderService(t))

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", jsonBody(t, map[string]string{}), uuid.New(), nil)
		rr := httptest.NewRecorder()

		h.CreateOrder().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeValidation)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		h := handlers.NewOrderHandler(mocks.NewOrderService(t))

		body := models.CreateOrderRequest{ShippingAddressID: uuid.New()}
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/orders", jsonBody(t, body), nil)
		rr := httptest.NewRecorder()

		h.CreateOrder().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusUnauthorized, appErrors.ErrCodeUnauthorized)
	})

	serviceFailures := []struct {
		name           string
		err            *appErrors.AppError
		expectedStatus int
	}{
		{"Empty Cart", appErrors.BadRequestError("Cart is empty"), http.StatusBadRequest},
		{"Foreign Address", appErrors.NotFoundError("Shipping address not found"), http.StatusNotFound},
		{"Gateway Down", appErrors.ThirdPartyError("Failed to initialize payment"), http.StatusInternalServerError},
	}

	for _, tc := range serviceFailures {
		t.Run("Failure - "+tc.name, func(t *testing.T) {
			orderService := mocks.NewOrderService(t)
			h := handlers.NewOrderHandler(orderService)
			userID := uuid.New()

			orderService.On("CreateOrder", mock.Anything, userID, mock.Anything).Return(nil, tc.err).Once()

			body := models.CreateOrderRequest{ShippingAddressID: uuid.New()}
			req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/orders", jsonBody(t, body), userID, nil)
			rr := httptest.NewRecorder()

			h.CreateOrder().ServeHTTP(rr, req)

			resp := assertErrorCode(t, rr, tc.expectedStatus, tc.err.Code)
			assert.Equal(t, tc.err.Message, resp.Error.Message)
		})
	}
}

func TestGetOrder(t *testing.T) {
	t.Run("Success - Own Order", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)
		userID := uuid.New()
		order := pendingOrder(userID)

		orderService.On("GetOrderByID", mock.Anything, userID, order.ID).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil, userID,
			map[string]string{"id": order.ID.String()})
		rr := httptest.NewRecorder()

		h.GetOrder().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Order
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, order.OrderNumber, got.OrderNumber)
	})

	t.Run("Failure - Foreign Order Is Not Found", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)
		userID, orderID := uuid.New(), uuid.New()

		orderService.On("GetOrderByID", mock.Anything, userID, orderID).Return(nil, appErrors.NotFoundError("Order not found")).Once()

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		rr := httptest.NewRecorder()

		h.GetOrder().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusNotFound, appErrors.ErrCodeNotFound)
	})

	t.Run("Failure - Invalid ID", func(t *testing.T) {
		h := handlers.NewOrderHandler(mocks.NewOrderService(t))

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders/xyz", nil, uuid.New(), map[string]string{"id": "xyz"})
		rr := httptest.NewRecorder()

		h.GetOrder().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeBadRequest)
	})
}

func TestListOrders(t *testing.T) {
	orderService := mocks.NewOrderService(t)
	h := handlers.NewOrderHandler(orderService)
	userID := uuid.New()

	orderService.On("ListOrdersByUser", mock.Anything, userID, 2, 5).
		Return([]*models.Order{pendingOrder(userID)}, 6, nil).Once()

	req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/orders?page=2&pageSize=5", nil, userID, nil)
	rr := httptest.NewRecorder()

	h.ListOrders().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var page models.PaginatedResponse
	decodeData(t, decodeResponse(t, rr), &page)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
}

func TestAdminOrders(t *testing.T) {
	adminID := uuid.New()

	t.Run("ListAllOrders", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)

		orderService.On("ListOrders", mock.Anything, 1, 10).
			Return([]*models.Order{pendingOrder(uuid.New()), pendingOrder(uuid.New())}, 2, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodGet, "/api/v1/admin/orders", nil, adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.ListAllOrders().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("GetAnyOrder", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)
		order := pendingOrder(uuid.New())

		orderService.On("GetOrder", mock.Anything, order.ID).Return(order, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodGet, "/api/v1/admin/orders/"+order.ID.String(), nil, adminID, models.RoleAdmin,
			map[string]string{"id": order.ID.String()})
		rr := httptest.NewRecorder()

		h.GetAnyOrder().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("UpdateOrderStatus - Success", func(t *testing.T) {
		orderService := mocks.NewOrderService(t)
		h := handlers.NewOrderHandler(orderService)
		order := pendingOrder(uuid.New())
		order.OrderStatus = models.OrderStatusShipped

		orderService.On("UpdateOrderStatus", mock.Anything, order.ID, models.OrderStatusShipped).Return(order, nil).Once()

		body := models.UpdateOrderStatusRequest{OrderStatus: models.OrderStatusShipped}
		req := testutils.CreateTestRequestWithRole(http.MethodPut, "/api/v1/admin/orders/"+order.ID.String(), jsonBody(t, body), adminID, models.RoleAdmin,
			map[string]string{"id": order.ID.String()})
		rr := httptest.NewRecorder()

		h.UpdateOrderStatus().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Order
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, models.OrderStatusShipped, got.OrderStatus)
	})

	t.Run("UpdateOrderStatus - Unknown Status Rejected", func(t *testing.T) {
		h := handlers.NewOrderHandler(mocks.NewOrderService(t))
		orderID := uuid.New()

		body := map[string]string{"orderStatus": "teleported"}
		req := testutils.CreateTestRequestWithRole(http.MethodPut, "/api/v1/admin/orders/"+orderID.String(), jsonBody(t, body), adminID, models.RoleAdmin,
			map[string]string{"id": orderID.String()})
		rr := httptest.NewRecorder()

		h.UpdateOrderStatus().ServeHTTP(rr, req)

		resp := assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeValidation)
		require.NotEmpty(t, resp.Error.Details)
		assert.Contains(t, resp.Error.Details[0], "must be one of")
	})
}
