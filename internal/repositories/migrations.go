package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		token TEXT,
		token_expiry TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS shipping_addresses (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		phone VARCHAR(30) NOT NULL,
		address VARCHAR(255) NOT NULL,
		city VARCHAR(100) NOT NULL,
		state VARCHAR(100) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		country VARCHAR(100) NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS shipping_addresses_one_default
		ON shipping_addresses (user_id) WHERE is_default`,
	`CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		slug VARCHAR(120) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
		name VARCHAR(200) NOT NULL,
		slug VARCHAR(220) NOT NULL UNIQUE,
		description TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		compare_price NUMERIC(12,2),
		brand VARCHAR(100) NOT NULL DEFAULT '',
		images JSONB NOT NULL DEFAULT '[]',
		stock INTEGER NOT NULL DEFAULT 0,
		sku VARCHAR(64) NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		order_number VARCHAR(40) NOT NULL UNIQUE,
		user_id UUID NOT NULL REFERENCES users(id),
		shipping_address JSONB NOT NULL,
		total_amount NUMERIC(12,2) NOT NULL,
		shipping_cost NUMERIC(12,2) NOT NULL,
		tax NUMERIC(12,2) NOT NULL,
		order_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(30) NOT NULL,
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_reference VARCHAR(40) NOT NULL UNIQUE,
		transaction_id VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_created_at ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		name VARCHAR(200) NOT NULL,
		slug VARCHAR(220) NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`ALTER TABLE order_items ADD COLUMN IF NOT EXISTS position INTEGER NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS order_items_order_id ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		type VARCHAR(20) NOT NULL,
		recipient VARCHAR(255) NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		status VARCHAR(20) NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema. Every statement is idempotent so it runs on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	slog.Info("Database migrations applied", slog.Int("statements", len(migrations)))

	return nil
}
