package handlers_test

import (
	"net/http"
	"net/http/httptest"
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

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func TestListProducts(t *testing.T) {
	tests := []struct {
		name             string
		query            string
		expectedPage     int
		expectedPageSize int
	}{
		{name: "Defaults", query: "", expectedPage: 1, expectedPageSize: 10},
		{name: "Explicit Page", query: "?page=3&pageSize=25", expectedPage: 3, expectedPageSize: 25},
		{name: "Out Of Range Falls Back", query: "?page=-1&pageSize=1000", expectedPage: 1, expectedPageSize: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			productService := mocks.NewProductService(t)
			h := handlers.NewProductHandler(productService)

			products := []*models.Product{
				{ID: uuid.New(), Name: "Desk Lamp", Slug: "desk-lamp", Price: decimal.RequireFromString("25.50"), IsActive: true},
			}
			productService.On("ListProducts", mock.Anything, tc.expectedPage, tc.expectedPageSize).Return(products, 21, nil).Once()

			req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products"+tc.query, nil, nil)
			rr := httptest.NewRecorder()

			h.ListProducts().ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)

			var page models.PaginatedResponse
			decodeData(t, decodeResponse(t, rr), &page)
			assert.Equal(t, 21, page.Total)
			assert.Equal(t, tc.expectedPage, page.Page)
			assert.Equal(t, tc.expectedPageSize, page.PageSize)
		})
	}
}

func TestGetProductBySlug(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)

		product := &models.Product{ID: uuid.New(), Name: "Desk Lamp", Slug: "desk-lamp", Price: decimal.RequireFromString("25.50"), IsActive: true}
		productService.On("GetProductBySlug", mock.Anything, "desk-lamp").Return(product, nil).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/desk-lamp", nil, map[string]string{"slug": "desk-lamp"})
		rr := httptest.NewRecorder()

		h.GetProductBySlug().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"price":25.5`)

		var got models.Product
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, product.ID, got.ID)
		assert.True(t, product.Price.Equal(got.Price))
	})

	t.Run("Not Found", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)

		productService.On("GetProductBySlug", mock.Anything, "ghost").Return(nil, appErrors.NotFoundError("Product not found")).Once()

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/ghost", nil, map[string]string{"slug": "ghost"})
		rr := httptest.NewRecorder()

		h.GetProductBySlug().ServeHTTP(rr, req)

		resp := assertErrorCode(t, rr, http.StatusNotFound, appErrors.ErrCodeNotFound)
		assert.Equal(t, "Product not found", resp.Error.Message)
	})
}

func TestAdminProducts(t *testing.T) {
	adminID := uuid.New()

	t.Run("CreateProduct - Success", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)

		body := models.CreateProductRequest{
			Name:        "Desk Lamp",
			Description: "Warm light",
			Price:       decimal.RequireFromString("25.50"),
			Stock:       10,
			SKU:         "LAMP-001",
		}
		created := &models.Product{ID: uuid.New(), Name: body.Name, Slug: "desk-lamp", Price: body.Price, Stock: 10, SKU: body.SKU, IsActive: true}

		productService.On("CreateProduct", mock.Anything, mock.MatchedBy(func(r *models.CreateProductRequest) bool {
			return r.SKU == "LAMP-001" && r.Price.Equal(body.Price)
		})).Return(created, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodPost, "/api/v1/admin/products", jsonBody(t, body), adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.CreateProduct().ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)

		var got models.Product
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, "desk-lamp", got.Slug)
	})

	t.Run("CreateProduct - Non Positive Price", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)

		productService.On("CreateProduct", mock.Anything, mock.Anything).
			Return(nil, appErrors.BadRequestError("Price must be greater than zero")).Once()

		body := models.CreateProductRequest{Name: "Freebie", Description: "x", Price: decimal.Zero, SKU: "FREE-1"}
		req := testutils.CreateTestRequestWithRole(http.MethodPost, "/api/v1/admin/products", jsonBody(t, body), adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.CreateProduct().ServeHTTP(rr, req)

		resp := assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeBadRequest)
		assert.Equal(t, "Price must be greater than zero", resp.Error.Message)
	})

	t.Run("UpdateProduct - Partial Fields", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)
		productID := uuid.New()

		body := models.UpdateProductRequest{Name: stringPtr("Desk Lamp XL"), Stock: intPtr(4)}
		updated := &models.Product{ID: productID, Name: "Desk Lamp XL", Slug: "desk-lamp", Stock: 4}

		productService.On("UpdateProduct", mock.Anything, productID, mock.MatchedBy(func(r *models.UpdateProductRequest) bool {
			return *r.Name == "Desk Lamp XL" && *r.Stock == 4 && r.Price == nil
		})).Return(updated, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodPut, "/api/v1/admin/products/"+productID.String(), jsonBody(t, body), adminID, models.RoleAdmin,
			map[string]string{"id": productID.String()})
		rr := httptest.NewRecorder()

		h.UpdateProduct().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Product
		decodeData(t, decodeResponse(t, rr), &got)
		assert.Equal(t, "desk-lamp", got.Slug)
	})

	t.Run("GetProduct - Invalid ID", func(t *testing.T) {
		h := handlers.NewProductHandler(mocks.NewProductService(t))

		req := testutils.CreateTestRequestWithRole(http.MethodGet, "/api/v1/admin/products/bad", nil, adminID, models.RoleAdmin,
			map[string]string{"id": "bad"})
		rr := httptest.NewRecorder()

		h.GetProduct().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusBadRequest, appErrors.ErrCodeBadRequest)
	})

	t.Run("DeleteProduct - Not Found", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)
		productID := uuid.New()

		productService.On("DeleteProduct", mock.Anything, productID).Return(appErrors.NotFoundError("Product not found")).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodDelete, "/api/v1/admin/products/"+productID.String(), nil, adminID, models.RoleAdmin,
			map[string]string{"id": productID.String()})
		rr := httptest.NewRecorder()

		h.DeleteProduct().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusNotFound, appErrors.ErrCodeNotFound)
	})

	t.Run("ListAllProducts - Includes Inactive", func(t *testing.T) {
		productService := mocks.NewProductService(t)
		h := handlers.NewProductHandler(productService)

		productService.On("ListAllProducts", mock.Anything, 1, 10).Return([]*models.Product{
			{ID: uuid.New(), Slug: "on", IsActive: true},
			{ID: uuid.New(), Slug: "off", IsActive: false},
		}, 2, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodGet, "/api/v1/admin/products", nil, adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.ListAllProducts().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"isActive":false`)
	})
}

func TestAdminCategories(t *testing.T) {
	adminID := uuid.New()

	t.Run("CreateCategory - Duplicate", func(t *testing.T) {
		categoryService := mocks.NewCategoryService(t)
		h := handlers.NewCategoryHandler(categoryService)

		categoryService.On("CreateCategory", mock.Anything, mock.Anything).
			Return(nil, appErrors.DuplicateEntryError("Category already exists")).Once()

		body := models.CreateCategoryRequest{Name: "Lighting"}
		req := testutils.CreateTestRequestWithRole(http.MethodPost, "/api/v1/admin/categories", jsonBody(t, body), adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.CreateCategory().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusConflict, appErrors.ErrCodeDuplicateEntry)
	})

	t.Run("ListCategories - Success", func(t *testing.T) {
		categoryService := mocks.NewCategoryService(t)
		h := handlers.NewCategoryHandler(categoryService)

		categoryService.On("ListCategories", mock.Anything).Return([]*models.Category{
			{ID: uuid.New(), Name: "Lighting", Slug: "lighting"},
		}, nil).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodGet, "/api/v1/admin/categories", nil, adminID, models.RoleAdmin, nil)
		rr := httptest.NewRecorder()

		h.ListCategories().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var categories []models.Category
		decodeData(t, decodeResponse(t, rr), &categories)
		require.Len(t, categories, 1)
		assert.Equal(t, "lighting", categories[0].Slug)
	})

	t.Run("UpdateCategory - Success", func(t *testing.T) {
		categoryService := mocks.NewCategoryService(t)
		h := handlers.NewCategoryHandler(categoryService)
		categoryID := uuid.New()

		categoryService.On("UpdateCategory", mock.Anything, categoryID, mock.MatchedBy(func(r *models.UpdateCategoryRequest) bool {
			return r.Description != nil && *r.Description == "Lamps and bulbs"
		})).Return(&models.Category{ID: categoryID, Name: "Lighting", Description: "Lamps and bulbs"}, nil).Once()

		body := models.UpdateCategoryRequest{Description: stringPtr("Lamps and bulbs")}
		req := testutils.CreateTestRequestWithRole(http.MethodPut, "/api/v1/admin/categories/"+categoryID.String(), jsonBody(t, body), adminID, models.RoleAdmin,
			map[string]string{"id": categoryID.String()})
		rr := httptest.NewRecorder()

		h.UpdateCategory().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("DeleteCategory - Not Found", func(t *testing.T) {
		categoryService := mocks.NewCategoryService(t)
		h := handlers.NewCategoryHandler(categoryService)
		categoryID := uuid.New()

		categoryService.On("DeleteCategory", mock.Anything, categoryID).Return(appErrors.NotFoundError("Category not found")).Once()

		req := testutils.CreateTestRequestWithRole(http.MethodDelete, "/api/v1/admin/categories/"+categoryID.String(), nil, adminID, models.RoleAdmin,
			map[string]string{"id": categoryID.String()})
		rr := httptest.NewRecorder()

		h.DeleteCategory().ServeHTTP(rr, req)

		assertErrorCode(t, rr, http.StatusNotFound, appErrors.ErrCodeNotFound)
	})
}
