package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api"
	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/services/mocks"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var routerJWTKey = []byte("router-test-secret-key-0123456789")

type routerFixture struct {
	handler  http.Handler
	products *mocks.ProductService
	orders   *mocks.OrderService
}

func newRouterFixture(t *testing.T) routerFixture {
	products := mocks.NewProductService(t)
	orders := mocks.NewOrderService(t)

	h := api.Handlers{
		User:         handlers.NewUserHandler(mocks.NewUserService(t), mocks.NewAddressService(t)),
		Product:      handlers.NewProductHandler(products),
		Category:     handlers.NewCategoryHandler(mocks.NewCategoryService(t)),
		Cart:         handlers.NewCartHandler(mocks.NewCartService(t)),
		Order:        handlers.NewOrderHandler(orders),
		Payment:      handlers.NewPaymentHandler(mocks.NewPaymentService(t)),
		Notification: handlers.NewNotificationHandler(mocks.NewNotificationService(t)),
	}

	mux := api.NewRouter(h, middleware.NewAuthMiddleware(routerJWTKey), nil)

	return routerFixture{
		handler:  api.Wrap(mux, middleware.NewRateLimiter(1000, 1000), "storefront-test"),
		products: products,
		orders:   orders,
	}
}

func bearer(t *testing.T, userID uuid.UUID, role models.Role) string {
	t.Helper()

	claims := &models.Claims{
		UserID: userID,
		Email:  "router@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(routerJWTKey)
	require.NoError(t, err)

	return "Bearer " + token
}

func TestRouter_PublicCatalog(t *testing.T) {
	f := newRouterFixture(t)

	f.products.On("GetProductBySlug", mock.Anything, "desk-lamp").
		Return(&models.Product{ID: uuid.New(), Slug: "desk-lamp", IsActive: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/desk-lamp", nil)
	rr := httptest.NewRecorder()

	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_AuthRequired(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rr := httptest.NewRecorder()

	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_AdminGroup(t *testing.T) {
	t.Run("Customer Forbidden", func(t *testing.T) {
		f := newRouterFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", bearer(t, uuid.New(), models.RoleUser))
		rr := httptest.NewRecorder()

		f.handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Admin Allowed", func(t *testing.T) {
		f := newRouterFixture(t)

		f.orders.On("ListOrders", mock.Anything, 1, 10).Return([]*models.Order{}, 0, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		req.Header.Set("Authorization", bearer(t, uuid.New(), models.RoleAdmin))
		rr := httptest.NewRecorder()

		f.handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRouter_OwnerScopedOrder(t *testing.T) {
	f := newRouterFixture(t)
	userID, orderID := uuid.New(), uuid.New()

	f.orders.On("GetOrderByID", mock.Anything, userID, orderID).
		Return(&models.Order{ID: orderID, UserID: userID}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req.Header.Set("Authorization", bearer(t, userID, models.RoleUser))
	rr := httptest.NewRecorder()

	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), orderID.String())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests")
}
