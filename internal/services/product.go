package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxSlugProbes bounds the numbered suffixes tried before falling back to a
// random one.
const maxSlugProbes = 10

type ProductService interface {
	ListProducts(ctx context.Context, page int, pageSize int) ([]*models.Product, int, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListAllProducts(ctx context.Context, page int, pageSize int) ([]*models.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Cache
}

func NewProductService(repo repository.ProductRepository, cache cache.Cache) ProductService {
	return &productService{repo: repo, cache: cache}
}

func productCacheKey(slug string) string {
	return cache.Key(cache.ProductSlugPrefix, slug)
}

func (s *productService) ListProducts(ctx context.Context, page int, pageSize int) ([]*models.Product, int, error) {

	products, total, err := s.repo.ListProducts(ctx, true, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) ListAllProducts(ctx context.Context, page int, pageSize int) ([]*models.Product, int, error) {

	products, total, err := s.repo.ListProducts(ctx, false, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

// GetProductBySlug serves the storefront product page. Inactive products are
// reported as missing.
func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := productCacheKey(slug)

	var cached models.Product
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Product cache read failed", slog.String("slug", slug), slog.Any("error", err))
	}
	if found {
		return &cached, nil
	}

	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if !product.IsActive {
		return nil, errors.NotFoundError("Product not found")
	}

	if err := s.cache.Set(ctx, key, product, 0); err != nil {
		logger.Warn("Product cache write failed", slog.String("slug", slug), slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	return product, nil
}

// uniqueSlug probes base, base-1 ... base-9 and then settles on a random
// suffix without probing further.
func (s *productService) uniqueSlug(ctx context.Context, base string) (string, error) {

	for i := range maxSlugProbes {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}

	return base + "-" + suffix, nil
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	if !req.Price.IsPositive() {
		return nil, errors.BadRequestError("Price must be greater than zero")
	}

	name := utils.SanitizeText(req.Name)

	base := utils.Slugify(req.Slug)
	if base == "" {
		base = utils.Slugify(name)
	}
	if base == "" {
		return nil, errors.BadRequestError("Product name must contain letters or digits")
	}

	slug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return nil, errors.DatabaseError("Failed to generate product slug").WithError(err)
	}

	product := &models.Product{
		ID:          uuid.New(),
		CategoryID:  req.CategoryID,
		Name:        name,
		Slug:        slug,
		Description: utils.SanitizeText(req.Description),
		Price:       req.Price.Round(2),
		Brand:       utils.SanitizeText(req.Brand),
		Images:      req.Images,
		Stock:       req.Stock,
		SKU:         utils.SanitizeText(req.SKU),
		IsActive:    true,
	}

	if product.Images == nil {
		product.Images = []string{}
	}
	if req.ComparePrice != nil {
		product.ComparePrice = decimal.NewNullDecimal(req.ComparePrice.Round(2))
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if isDuplicate(err) {
			return nil, errors.DuplicateEntryError("Product with this SKU or slug already exists").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

// UpdateProduct applies the non-nil fields of req. The slug never changes so
// existing links stay valid.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = utils.SanitizeText(*req.Name)
	}
	if req.Description != nil {
		product.Description = utils.SanitizeText(*req.Description)
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, errors.BadRequestError("Price must be greater than zero")
		}
		product.Price = req.Price.Round(2)
	}
	if req.ComparePrice != nil {
		product.ComparePrice = decimal.NewNullDecimal(req.ComparePrice.Round(2))
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.Brand != nil {
		product.Brand = utils.SanitizeText(*req.Brand)
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to update product").WithError(err)
	}

	s.invalidate(ctx, product.Slug)

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if isNotFound(err) {
			return errors.NotFoundError("Product not found").WithError(err)
		}
		return errors.DatabaseError("Failed to delete product").WithError(err)
	}

	s.invalidate(ctx, product.Slug)

	return nil
}

func (s *productService) invalidate(ctx context.Context, slugs ...string) {

	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		keys = append(keys, productCacheKey(slug))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate product cache", slog.Any("error", err))
	}
}
