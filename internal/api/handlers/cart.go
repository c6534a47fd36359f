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

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//
//	@Summary		Get the current cart
//	@Description	Returns an empty cart when the user has none.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.Cart
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to get cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adds to the existing quantity when the product is already in the cart.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity"
//	@Success		200		{object}	models.Cart
//	@Failure		400		{object}	response.ErrorResponse	"Validation error or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/cart [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized add to cart attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Failed to add item to cart", slog.String("productId", req.ProductID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("productId", req.ProductID.String()))
		response.Success(w, http.StatusOK, cart)
	}
}

// UpdateQuantity godoc
//
//	@Summary		Set the quantity of a cart line
//	@Description	A quantity of 0 removes the line.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.UpdateCartItemRequest	true	"Product and new quantity"
//	@Success		200		{object}	models.Cart
//	@Failure		400		{object}	response.ErrorResponse	"Validation error or insufficient stock"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"Item not found in cart"
//	@Security		BearerAuth
//	@Router			/cart [put]
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.UpdateCartItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update quantity input")
			return
		}

		cart, err := h.cartService.UpdateQuantity(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Warn("Failed to update cart quantity", slog.String("productId", req.ProductID.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// ClearCart godoc
//
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.MessageResponse
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized cart clear attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		if err := h.cartService.ClearCart(r.Context(), claims.UserID); err != nil {
			logger.Error("Failed to clear cart", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Cart cleared")
		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Cart cleared successfully"})
	}
}
