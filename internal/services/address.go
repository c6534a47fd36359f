package service

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/google/uuid"
)

type AddressService interface {
	AddAddress(ctx context.Context, userID uuid.UUID, req *models.AddAddressRequest) (*models.ShippingAddress, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressService struct {
	repo repository.AddressRepository
}

func NewAddressService(repo repository.AddressRepository) AddressService {
	return &addressService{repo: repo}
}

// AddAddress stores a new address. A default address replaces the previous default.
func (s *addressService) AddAddress(ctx context.Context, userID uuid.UUID, req *models.AddAddressRequest) (*models.ShippingAddress, error) {

	address := &models.ShippingAddress{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       utils.SanitizeText(req.Name),
		Phone:      utils.SanitizeText(req.Phone),
		Address:    utils.SanitizeText(req.Address),
		City:       utils.SanitizeText(req.City),
		State:      utils.SanitizeText(req.State),
		PostalCode: utils.SanitizeText(req.PostalCode),
		Country:    utils.SanitizeText(req.Country),
		IsDefault:  req.IsDefault,
	}

	if err := s.repo.AddAddress(ctx, address); err != nil {
		return nil, errors.DatabaseError("Failed to add address").WithError(err)
	}

	return address, nil
}

func (s *addressService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {

	addresses, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch addresses").WithError(err)
	}

	return addresses, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {

	address, err := s.repo.GetAddress(ctx, userID, addressID)
	if err != nil {
		if isNotFound(err) {
			return errors.NotFoundError("Shipping address not found").WithError(err)
		}
		return errors.DatabaseError("Failed to fetch address").WithError(err)
	}

	if address.IsDefault {
		return errors.BadRequestError("Cannot delete default address")
	}

	if err := s.repo.DeleteAddress(ctx, userID, addressID); err != nil {
		if isNotFound(err) {
			return errors.NotFoundError("Shipping address not found").WithError(err)
		}
		return errors.DatabaseError("Failed to delete address").WithError(err)
	}

	return nil
}
