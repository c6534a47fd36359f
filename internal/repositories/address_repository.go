package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type AddressRepository interface {
	AddAddress(ctx context.Context, address *models.ShippingAddress) error
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.ShippingAddress, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressRepository struct {
	DB *sql.DB
}

func NewAddressRepo(db *sql.DB) AddressRepository {
	return &addressRepository{DB: db}
}

const addressColumns = `id, user_id, name, phone, address, city, state, postal_code, country, is_default, created_at`

func scanAddress(row rowScanner) (*models.ShippingAddress, error) {
	a := &models.ShippingAddress{}

	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Address, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// AddAddress inserts address; when it is the new default every other address
// of the user loses the flag in the same transaction.
func (r *addressRepository) AddAddress(ctx context.Context, address *models.ShippingAddress) (err error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if address.IsDefault {
		if _, err = tx.ExecContext(dbCtx, `UPDATE shipping_addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, address.UserID); err != nil {
			return fmt.Errorf("failed to clear default address: %w", err)
		}
	}

	query := `
		INSERT INTO shipping_addresses (id, user_id, name, phone, address, city, state, postal_code, country, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`

	err = tx.QueryRowContext(dbCtx, query, address.ID, address.UserID, address.Name, address.Phone, address.Address,
		address.City, address.State, address.PostalCode, address.Country, address.IsDefault).Scan(&address.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit address: %w", err)
	}

	return nil
}

func (r *addressRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + addressColumns + ` FROM shipping_addresses WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []models.ShippingAddress{}

	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over the rows: %w", err)
	}

	return addresses, nil
}

func (r *addressRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.ShippingAddress, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + addressColumns + ` FROM shipping_addresses WHERE id = $1 AND user_id = $2`

	a, err := scanAddress(r.DB.QueryRowContext(dbCtx, query, addressID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", mapError(err))
	}

	return a, nil
}

func (r *addressRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM shipping_addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	return requireAffected(result, "address")
}
