package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderService service.OrderService
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService, validator: validator.New()}
}

// CreateOrder godoc
//
//	@Summary		Check out the current cart
//	@Description	Creates a pending order from the cart and the chosen shipping address, then initializes a payment. The cart is kept until the payment is verified.
//	@Tags			Orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		models.CreateOrderRequest	true	"Shipping address to deliver to"
//	@Success		201		{object}	models.CheckoutResponse		"Order created, redirect the customer to paymentUrl"
//	@Failure		400		{object}	response.ErrorResponse		"Empty cart, unavailable product or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"User or shipping address not found"
//	@Failure		500		{object}	response.ErrorResponse		"Payment initialization failed"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order creation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}
		logger = logger.With(slog.String("userID", claims.UserID.String()))

		var req models.CreateOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create order input")
			return
		}

		checkout, err := h.orderService.CreateOrder(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to create order", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order created successfully",
			slog.String("orderId", checkout.Order.ID.String()),
			slog.String("reference", checkout.Reference),
		)
		response.Success(w, http.StatusCreated, checkout)
	}
}

// GetOrder godoc
//
//	@Summary		Get one of the caller's orders
//	@Description	Orders owned by other users are reported as not found.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully retrieved order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order access attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userID", claims.UserID.String()))

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), claims.UserID, id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//
//	@Summary		List the caller's orders
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved list of orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order list attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, pageSize := utils.ParsePagination(r)

		orders, total, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// ListAllOrders godoc
//
//	@Summary		List all orders (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			pageSize	query		int	false	"Items per page (default: 10, max: 100)"
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse	"Admin role required"
//	@Security		BearerAuth
//	@Router			/admin/orders [get]
func (h *OrderHandler) ListAllOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := utils.ParsePagination(r)

		orders, total, err := h.orderService.ListOrders(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// GetAnyOrder godoc
//
//	@Summary		Get any order by ID (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id} [get]
func (h *OrderHandler) GetAnyOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		order, err := h.orderService.GetOrder(r.Context(), id)
		if err != nil {
			logger.Warn("Failed to get order", slog.String("orderId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// UpdateOrderStatus godoc
//
//	@Summary		Update order status (Admin)
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Param			status	body		models.UpdateOrderStatusRequest	true	"New Order Status"
//	@Success		200		{object}	models.Order					"Successfully updated order status"
//	@Failure		400		{object}	response.ErrorResponse			"Invalid order ID format or invalid status value"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse			"Admin role required"
//	@Failure		404		{object}	response.ErrorResponse			"Order not found"
//	@Security		BearerAuth
//	@Router			/admin/orders/{id} [put]
func (h *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("orderId", id.String()))

		var req models.UpdateOrderStatusRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update order status input")
			return
		}

		order, err := h.orderService.UpdateOrderStatus(r.Context(), id, req.OrderStatus)
		if err != nil {
			logger.Error("Failed to update order status", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Order status updated successfully", slog.String("newStatus", string(req.OrderStatus)))
		response.Success(w, http.StatusOK, order)
	}
}
