package models

import (
	"time"

	"github.com/google/uuid"
)

type ShippingAddress struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"-"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AddressSnapshot is the copy of a shipping address frozen into an order.
type AddressSnapshot struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a *ShippingAddress) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Name:       a.Name,
		Phone:      a.Phone,
		Address:    a.Address,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type AddAddressRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,max=30"`
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	IsDefault  bool   `json:"isDefault"`
}
