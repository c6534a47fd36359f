package service

import (
	"context"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.Cache
}

func NewCategoryService(repo repository.CategoryRepository, cache cache.Cache) CategoryService {
	return &categoryService{repo: repo, cache: cache}
}

var categoryListKey = cache.Key(cache.CategoryPrefix, "all")

func (s *categoryService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoryListKey); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate category cache", slog.Any("error", err))
	}
}

func (s *categoryService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {

	name := utils.SanitizeText(req.Name)

	slug := utils.Slugify(req.Slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if slug == "" {
		return nil, errors.BadRequestError("Category name must contain letters or digits")
	}

	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: utils.SanitizeText(req.Description),
		Image:       req.Image,
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if isDuplicate(err) {
			return nil, errors.DuplicateEntryError("Category already exists").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to create category").WithError(err)
	}

	s.invalidate(ctx)

	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {

	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Category not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch category").WithError(err)
	}

	if req.Name != nil {
		category.Name = utils.SanitizeText(*req.Name)
	}
	if req.Description != nil {
		category.Description = utils.SanitizeText(*req.Description)
	}
	if req.Image != nil {
		category.Image = *req.Image
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Category not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to update category").WithError(err)
	}

	s.invalidate(ctx)

	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if isNotFound(err) {
			return errors.NotFoundError("Category not found").WithError(err)
		}
		return errors.DatabaseError("Failed to delete category").WithError(err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {

	logger := middleware.LoggerFromContext(ctx)

	var categories []*models.Category
	found, err := s.cache.Get(ctx, categoryListKey, &categories)
	if err != nil {
		logger.Warn("Category cache read failed", slog.Any("error", err))
	}
	if found {
		return categories, nil
	}

	categories, err = s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch categories").WithError(err)
	}

	if err := s.cache.Set(ctx, categoryListKey, categories, 0); err != nil {
		logger.Warn("Category cache write failed", slog.Any("error", err))
	}

	return categories, nil
}
