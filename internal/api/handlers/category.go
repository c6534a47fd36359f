package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	validator       *validator.Validate
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, validator: validator.New()}
}

// ListCategories godoc
//
//	@Summary		List categories (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{array}		models.Category
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Admin role required"
//	@Security		BearerAuth
//	@Router			/admin/categories [get]
func (h *CategoryHandler) ListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		categories, err := h.categoryService.ListCategories(r.Context())
		if err != nil {
			logger.Error("Failed to list categories", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, categories)
	}
}

// CreateCategory godoc
//
//	@Summary		Create a category (Admin)
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			category	body		models.CreateCategoryRequest	true	"Category details"
//	@Success		201			{object}	models.Category
//	@Failure		400			{object}	response.ErrorResponse	"Validation error"
//	@Failure		409			{object}	response.ErrorResponse	"Category already exists"
//	@Security		BearerAuth
//	@Router			/admin/categories [post]
func (h *CategoryHandler) CreateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateCategoryRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create category input")
			return
		}

		category, err := h.categoryService.CreateCategory(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create category", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Category created", slog.String("categoryId", category.ID.String()))
		response.Success(w, http.StatusCreated, category)
	}
}

// UpdateCategory godoc
//
//	@Summary		Update a category (Admin)
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string							true	"Category ID (UUID)"	Format(uuid)
//	@Param			category	body		models.UpdateCategoryRequest	true	"Fields to change"
//	@Success		200			{object}	models.Category
//	@Failure		404			{object}	response.ErrorResponse	"Category not found"
//	@Security		BearerAuth
//	@Router			/admin/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid category id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		var req models.UpdateCategoryRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update category input")
			return
		}

		category, err := h.categoryService.UpdateCategory(r.Context(), id, &req)
		if err != nil {
			logger.Error("Failed to update category", slog.String("categoryId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, category)
	}
}

// DeleteCategory godoc
//
//	@Summary		Delete a category (Admin)
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"Category ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.MessageResponse
//	@Failure		404	{object}	response.ErrorResponse	"Category not found"
//	@Security		BearerAuth
//	@Router			/admin/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid category id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.categoryService.DeleteCategory(r.Context(), id); err != nil {
			logger.Warn("Failed to delete category", slog.String("categoryId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Category deleted", slog.String("categoryId", id.String()))
		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Category deleted successfully"})
	}
}
