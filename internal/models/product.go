package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID           uuid.UUID           `json:"id"`
	CategoryID   *uuid.UUID          `json:"categoryId,omitempty"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Description  string              `json:"description"`
	Price        decimal.Decimal     `json:"price"`
	ComparePrice decimal.NullDecimal `json:"comparePrice"`
	Brand        string              `json:"brand,omitempty"`
	Images       []string            `json:"images"`
	Stock        int                 `json:"stock"`
	SKU          string              `json:"sku"`
	IsActive     bool                `json:"isActive"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// PrimaryImage returns the first image, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}

	return p.Images[0]
}

type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,min=2,max=200"`
	Slug         string           `json:"slug" validate:"omitempty,max=220"`
	Description  string           `json:"description" validate:"required"`
	Price        decimal.Decimal  `json:"price"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty"`
	CategoryID   *uuid.UUID       `json:"categoryId,omitempty"`
	Brand        string           `json:"brand" validate:"omitempty,max=100"`
	Images       []string         `json:"images" validate:"omitempty,dive,url"`
	Stock        int              `json:"stock" validate:"gte=0"`
	SKU          string           `json:"sku" validate:"required,max=64"`
	IsActive     *bool            `json:"isActive,omitempty"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	ComparePrice *decimal.Decimal `json:"comparePrice,omitempty"`
	CategoryID   *uuid.UUID       `json:"categoryId,omitempty"`
	Brand        *string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Images       []string         `json:"images,omitempty" validate:"omitempty,dive,url"`
	Stock        *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool            `json:"isActive,omitempty"`
}
