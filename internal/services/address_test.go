package service_test

import (
	"context"
	"errors"
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/repositories/mocks"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddAddress(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	req := &models.AddAddressRequest{
		Name:       "Ada <b>Lovelace</b>",
		Phone:      "+44 20 7946 0000",
		Address:    "12 St James's Square",
		City:       "London",
		State:      "Greater London",
		PostalCode: "SW1Y 4JH",
		Country:    "UK",
		IsDefault:  true,
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := mocks.NewAddressRepository(t)
		addressService := service.NewAddressService(mockRepo)

		mockRepo.On("AddAddress", ctx, mock.MatchedBy(func(a *models.ShippingAddress) bool {
			return a.UserID == userID && a.IsDefault && a.ID != uuid.Nil
		})).Return(nil).Once()

		address, err := addressService.AddAddress(ctx, userID, req)

		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", address.Name)
		assert.Equal(t, "12 St James's Square", address.Address)
	})

	t.Run("Database error", func(t *testing.T) {
		mockRepo := mocks.NewAddressRepository(t)
		addressService := service.NewAddressService(mockRepo)

		mockRepo.On("AddAddress", ctx, mock.Anything).Return(errors.New("db down")).Once()

		_, err := addressService.AddAddress(ctx, userID, req)

		requireAppError(t, err, appErrors.ErrCodeDatabaseError, "Failed to add address")
	})
}

func TestDeleteAddress(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	addressID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mockRepo := mocks.NewAddressRepository(t)
		addressService := service.NewAddressService(mockRepo)

		mockRepo.On("GetAddress", ctx, userID, addressID).Return(&models.ShippingAddress{ID: addressID}, nil).Once()
		mockRepo.On("DeleteAddress", ctx, userID, addressID).Return(nil).Once()

		assert.NoError(t, addressService.DeleteAddress(ctx, userID, addressID))
	})

	t.Run("Default address is protected", func(t *testing.T) {
		mockRepo := mocks.NewAddressRepository(t)
		addressService := service.NewAddressService(mockRepo)

		mockRepo.On("GetAddress", ctx, userID, addressID).Return(&models.ShippingAddress{ID: addressID, IsDefault: true}, nil).Once()

		err := addressService.DeleteAddress(ctx, userID, addressID)

		requireAppError(t, err, appErrors.ErrCodeBadRequest, "Cannot delete default address")
		mockRepo.AssertNotCalled(t, "DeleteAddress", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing address", func(t *testing.T) {
		mockRepo := mocks.NewAddressRepository(t)
		addressService := service.NewAddressService(mockRepo)

		mockRepo.On("GetAddress", ctx, userID, addressID).Return(nil, repository.ErrNotFound).Once()

		err := addressService.DeleteAddress(ctx, userID, addressID)

		requireAppError(t, err, appErrors.ErrCodeNotFound, "Shipping address not found")
	})
}

func TestListAddresses(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	mockRepo := mocks.NewAddressRepository(t)
	addressService := service.NewAddressService(mockRepo)

	expected := []models.ShippingAddress{{ID: uuid.New(), IsDefault: true}, {ID: uuid.New()}}
	mockRepo.On("ListAddresses", ctx, userID).Return(expected, nil).Once()

	addresses, err := addressService.ListAddresses(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, expected, addresses)
}
