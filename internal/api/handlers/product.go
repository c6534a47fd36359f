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

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

// ListProducts godoc
//
//	@Summary		List active products
//	@Tags			Products
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"					minimum(1)
//	@Param			pageSize	query		int												false	"Items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Product}	"Products in the catalog"
//	@Failure		500			{object}	response.ErrorResponse							"Internal server error"
//	@Router			/products [get]
func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := utils.ParsePagination(r)

		products, total, err := h.productService.ListProducts(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list products", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// GetProductBySlug godoc
//
//	@Summary		Get a product by slug
//	@Tags			Products
//	@Produce		json
//	@Param			slug	path		string	true	"Product slug"
//	@Success		200		{object}	models.Product
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Router			/products/{slug} [get]
func (h *ProductHandler) GetProductBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		slug := r.PathValue("slug")
		if slug == "" {
			response.Error(w, errors.BadRequestError("Missing slug"))
			return
		}

		product, err := h.productService.GetProductBySlug(r.Context(), slug)
		if err != nil {
			logger.Warn("Failed to get product", slog.String("slug", slug), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// ListAllProducts godoc
//
//	@Summary		List all products (Admin)
//	@Description	Includes inactive products.
//	@Tags			Admin
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"
//	@Param			pageSize	query		int												false	"Items per page (default: 10, max: 100)"
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Product}
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse	"Admin role required"
//	@Security		BearerAuth
//	@Router			/admin/products [get]
func (h *ProductHandler) ListAllProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, pageSize := utils.ParsePagination(r)

		products, total, err := h.productService.ListAllProducts(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list products", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}

// GetProduct godoc
//
//	@Summary		Get a product by ID (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"Product ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Product
//	@Failure		400	{object}	response.ErrorResponse	"Invalid product ID format"
//	@Failure		404	{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/admin/products/{id} [get]
func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		product, err := h.productService.GetProduct(r.Context(), id)
		if err != nil {
			logger.Warn("Failed to get product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// CreateProduct godoc
//
//	@Summary		Create a product (Admin)
//	@Description	The slug is derived from the name when omitted and made unique.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			product	body		models.CreateProductRequest	true	"Product details"
//	@Success		201		{object}	models.Product
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		409		{object}	response.ErrorResponse	"SKU or slug already exists"
//	@Security		BearerAuth
//	@Router			/admin/products [post]
func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create product input")
			return
		}

		product, err := h.productService.CreateProduct(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create product", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product created", slog.String("productId", product.ID.String()), slog.String("slug", product.Slug))
		response.Success(w, http.StatusCreated, product)
	}
}

// UpdateProduct godoc
//
//	@Summary		Update a product (Admin)
//	@Description	Only the supplied fields change. The slug is kept.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param			product	body		models.UpdateProductRequest	true	"Fields to change"
//	@Success		200		{object}	models.Product
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		404		{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/admin/products/{id} [put]
func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update product input")
			return
		}

		product, err := h.productService.UpdateProduct(r.Context(), id, &req)
		if err != nil {
			logger.Error("Failed to update product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product updated", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, product)
	}
}

// DeleteProduct godoc
//
//	@Summary		Delete a product (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"Product ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.MessageResponse
//	@Failure		404	{object}	response.ErrorResponse	"Product not found"
//	@Security		BearerAuth
//	@Router			/admin/products/{id} [delete]
func (h *ProductHandler) DeleteProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
			logger.Warn("Failed to delete product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Product deleted", slog.String("productId", id.String()))
		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Product deleted successfully"})
	}
}
