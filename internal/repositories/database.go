package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"go.opentelemetry.io/otel/attribute"

	_ "github.com/lib/pq"
)

type Repository struct {
	DB           *sql.DB
	User         UserRepository
	Address      AddressRepository
	Category     CategoryRepository
	Product      ProductRepository
	Cart         CartRepository
	Order        OrderRepository
	Notification NotificationRepository
}

func New(ctx context.Context, cfg *config.Config) (*Repository, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("Connected to Postgres", slog.String("host", cfg.Database.Host), slog.String("database", cfg.Database.Name))

	return NewFromDB(db), nil
}

// NewFromDB wires every repository over an already opened handle.
func NewFromDB(db *sql.DB) *Repository {
	return &Repository{
		DB:           db,
		User:         NewUserRepo(db),
		Address:      NewAddressRepo(db),
		Category:     NewCategoryRepo(db),
		Product:      NewProductRepo(db),
		Cart:         NewCartRepo(db),
		Order:        NewOrderRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

func (p *Repository) Close() error {
	return p.DB.Close()
}
