package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, activeOnly bool, page, size int) ([]*models.Product, int, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `id, category_id, name, slug, description, price, compare_price, brand, images, stock, sku, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}

	var categoryID uuid.NullUUID
	var images []byte

	err := row.Scan(&product.ID, &categoryID, &product.Name, &product.Slug, &product.Description, &product.Price,
		&product.ComparePrice, &product.Brand, &images, &product.Stock, &product.SKU, &product.IsActive,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		product.CategoryID = &categoryID.UUID
	}

	product.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &product.Images); err != nil {
			return nil, fmt.Errorf("failed to decode product images: %w", err)
		}
	}

	return product, nil
}

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}

	return json.Marshal(images)
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	images, err := encodeImages(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode product images: %w", err)
	}

	query := `
		INSERT INTO products (id, category_id, name, slug, description, price, compare_price, brand, images, stock, sku, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = r.DB.QueryRowContext(dbCtx, query, product.ID, product.CategoryID, product.Name, product.Slug, product.Description,
		product.Price, product.ComparePrice, product.Brand, images, product.Stock, product.SKU, product.IsActive).
		Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapError(err))
	}

	return nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", mapError(err))
	}

	return product, nil
}

func (r *productRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	product, err := scanProduct(r.DB.QueryRowContext(dbCtx, query, slug))
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug: %w", mapError(err))
	}

	return product, nil
}

func (r *productRepository) SlugExists(ctx context.Context, slug string) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var exists bool

	err := r.DB.QueryRowContext(dbCtx, `SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product slug: %w", err)
	}

	return exists, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	images, err := encodeImages(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode product images: %w", err)
	}

	query := `
		UPDATE products
		SET category_id = $1, name = $2, description = $3, price = $4, compare_price = $5, brand = $6, images = $7, stock = $8, is_active = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	err = r.DB.QueryRowContext(dbCtx, query, product.CategoryID, product.Name, product.Description, product.Price,
		product.ComparePrice, product.Brand, images, product.Stock, product.IsActive, product.ID).Scan(&product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", mapError(err))
	}

	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return requireAffected(result, "product")
}

func (r *productRepository) ListProducts(ctx context.Context, activeOnly bool, page, size int) ([]*models.Product, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM products WHERE ($1 = FALSE OR is_active)`, activeOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = FALSE OR is_active)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(dbCtx, query, activeOnly, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over the rows: %w", err)
	}

	return products, total, nil
}

func requireAffected(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}

	return nil
}
