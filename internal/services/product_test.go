package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	cachemocks "github.com/aaravmahajanofficial/storefront/internal/cache/mocks"
	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) (service.ProductService, *mocks.ProductRepository, *cachemocks.MockCache) {
	mockRepo := mocks.NewProductRepository(t)
	mockCache := cachemocks.NewMockCache(t)
	return service.NewProductService(mockRepo, mockCache), mockRepo, mockCache
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	req := &models.CreateProductRequest{
		Name:        "Ceramic Mug",
		Description: "<script>alert(1)</script>Holds coffee",
		Price:       d("12.499"),
		Images:      []string{"https://cdn.example.com/mug.png"},
		Stock:       10,
		SKU:         "MUG-001",
	}

	t.Run("Success - unused slug", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("SlugExists", ctx, "ceramic-mug").Return(false, nil).Once()
		mockRepo.On("CreateProduct", ctx, mock.MatchedBy(func(p *models.Product) bool {
			return p.Slug == "ceramic-mug" && p.SKU == "MUG-001" && p.IsActive
		})).Return(nil).Once()

		product, err := productService.CreateProduct(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "Holds coffee", product.Description)
		assert.True(t, d("12.50").Equal(product.Price))
		assert.Equal(t, "https://cdn.example.com/mug.png", product.PrimaryImage())
	})

	t.Run("Slug collision takes the next suffix", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("SlugExists", ctx, "ceramic-mug").Return(true, nil).Once()
		mockRepo.On("SlugExists", ctx, "ceramic-mug-1").Return(true, nil).Once()
		mockRepo.On("SlugExists", ctx, "ceramic-mug-2").Return(false, nil).Once()
		mockRepo.On("CreateProduct", ctx, mock.Anything).Return(nil).Once()

		product, err := productService.CreateProduct(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "ceramic-mug-2", product.Slug)
	})

	t.Run("Probing is capped then a random suffix is used", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("SlugExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Times(10)
		mockRepo.On("CreateProduct", ctx, mock.Anything).Return(nil).Once()

		product, err := productService.CreateProduct(ctx, req)

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^ceramic-mug-[0-9a-f]{6}$`), product.Slug)
		mockRepo.AssertNumberOfCalls(t, "SlugExists", 10)
	})

	t.Run("Non-positive price", func(t *testing.T) {
		productService, _, _ := setupProductServiceTest(t)
		bad := *req
		bad.Price = d("0")

		_, err := productService.CreateProduct(ctx, &bad)

		requireAppError(t, err, appErrors.ErrCodeBadRequest, "Price must be greater than zero")
	})

	t.Run("Duplicate SKU", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("SlugExists", ctx, "ceramic-mug").Return(false, nil).Once()
		mockRepo.On("CreateProduct", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()

		_, err := productService.CreateProduct(ctx, req)

		requireAppError(t, err, appErrors.ErrCodeDuplicateEntry, "Product with this SKU or slug already exists")
	})
}

func TestGetProductBySlug(t *testing.T) {
	ctx := context.Background()
	key := "storefront:product-slug:ceramic-mug"

	t.Run("Cache miss loads and caches", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)
		product := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", IsActive: true}

		mockCache.On("Get", ctx, key, mock.Anything).Return(false, nil).Once()
		mockRepo.On("GetProductBySlug", ctx, "ceramic-mug").Return(product, nil).Once()
		mockCache.On("Set", ctx, key, product, mock.Anything).Return(nil).Once()

		got, err := productService.GetProductBySlug(ctx, "ceramic-mug")

		require.NoError(t, err)
		assert.Equal(t, product, got)
	})

	t.Run("Cache errors fall through to the database", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)
		product := &models.Product{ID: uuid.New(), Slug: "ceramic-mug", IsActive: true}

		mockCache.On("Get", ctx, key, mock.Anything).Return(false, errors.New("redis down")).Once()
		mockRepo.On("GetProductBySlug", ctx, "ceramic-mug").Return(product, nil).Once()
		mockCache.On("Set", ctx, key, product, mock.Anything).Return(errors.New("redis down")).Once()

		got, err := productService.GetProductBySlug(ctx, "ceramic-mug")

		require.NoError(t, err)
		assert.Equal(t, product.ID, got.ID)
	})

	t.Run("Inactive product is hidden", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)

		mockCache.On("Get", ctx, key, mock.Anything).Return(false, nil).Once()
		mockRepo.On("GetProductBySlug", ctx, "ceramic-mug").Return(&models.Product{Slug: "ceramic-mug"}, nil).Once()

		_, err := productService.GetProductBySlug(ctx, "ceramic-mug")

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Product not found")
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	productService, mockRepo, _ := setupProductServiceTest(t)
	expected := []*models.Product{{ID: uuid.New()}}

	mockRepo.On("ListProducts", ctx, true, 2, 20).Return(expected, 21, nil).Once()
	mockRepo.On("ListProducts", ctx, false, 1, 10).Return(expected, 1, nil).Once()

	products, total, err := productService.ListProducts(ctx, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.Equal(t, expected, products)

	_, total, err = productService.ListAllProducts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Partial update invalidates the cached page", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)
		stock := 0
		active := false

		mockRepo.On("GetProductByID", ctx, id).Return(&models.Product{ID: id, Name: "Mug", Slug: "mug", Stock: 4, IsActive: true, Price: d("5")}, nil).Once()
		mockRepo.On("UpdateProduct", ctx, mock.MatchedBy(func(p *models.Product) bool {
			return p.Stock == 0 && !p.IsActive && p.Name == "Mug"
		})).Return(nil).Once()
		mockCache.On("Delete", ctx, "storefront:product-slug:mug").Return(nil).Once()

		product, err := productService.UpdateProduct(ctx, id, &models.UpdateProductRequest{Stock: &stock, IsActive: &active})

		require.NoError(t, err)
		assert.Equal(t, "mug", product.Slug)
	})

	t.Run("Not found", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("GetProductByID", ctx, id).Return(nil, repository.ErrNotFound).Once()

		_, err := productService.UpdateProduct(ctx, id, &models.UpdateProductRequest{})

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Product not found")
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		productService, mockRepo, mockCache := setupProductServiceTest(t)

		mockRepo.On("GetProductByID", ctx, id).Return(&models.Product{ID: id, Slug: "mug"}, nil).Once()
		mockRepo.On("DeleteProduct", ctx, id).Return(nil).Once()
		mockCache.On("Delete", ctx, "storefront:product-slug:mug").Return(nil).Once()

		assert.NoError(t, productService.DeleteProduct(ctx, id))
	})

	t.Run("Absent product", func(t *testing.T) {
		productService, mockRepo, _ := setupProductServiceTest(t)

		mockRepo.On("GetProductByID", ctx, id).Return(nil, repository.ErrNotFound).Once()

		err := productService.DeleteProduct(ctx, id)

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Product not found")
	})
}
