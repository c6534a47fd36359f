package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepo(db *sql.DB) CategoryRepository {
	return &categoryRepository{DB: db}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO categories (id, name, slug, description, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, category.ID, category.Name, category.Slug, category.Description, category.Image).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", mapError(err))
	}

	return nil
}

func (r *categoryRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	c := &models.Category{}

	query := `SELECT id, name, slug, description, image, created_at, updated_at FROM categories WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", mapError(err))
	}

	return c, nil
}

func (r *categoryRepository) UpdateCategory(ctx context.Context, category *models.Category) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE categories SET name = $1, description = $2, image = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, category.Name, category.Description, category.Image, category.ID).Scan(&category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", mapError(err))
	}

	return nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return requireAffected(result, "category")
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT id, name, slug, description, image, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}

	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over the rows: %w", err)
	}

	return categories, nil
}
