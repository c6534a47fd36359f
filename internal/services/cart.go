package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateCartItemRequest) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the user's cart with product details attached. A user who
// never added anything gets an empty cart rather than an error.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}, TotalAmount: decimal.Zero}, nil
		}
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	total := decimal.Zero

	for i := range cart.Items {
		item := &cart.Items[i]

		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		switch {
		case err == nil:
			item.Product = product
		case isNotFound(err):
			middleware.LoggerFromContext(ctx).Warn("Cart references a missing product", slog.String("productId", item.ProductID.String()))
		default:
			return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
		}

		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	cart.TotalAmount = total.Round(2)

	return cart, nil
}

// availableProduct loads a product a shopper may put in the cart.
func (s *cartService) availableProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if !product.IsActive {
		return nil, errors.NotFoundError("Product not found")
	}

	return product, nil
}

func insufficientStock(product *models.Product) error {
	return errors.BadRequestError(fmt.Sprintf("Insufficient stock for %s. Only %d available", product.Name, max(product.Stock, 0)))
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.availableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		return nil, insufficientStock(product)
	}

	if err := s.cartRepo.UpsertItem(ctx, userID, product.ID, quantity, product.Price); err != nil {
		return nil, errors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateCartItemRequest) (*models.Cart, error) {

	if req.Quantity < 0 {
		return nil, errors.BadRequestError("Quantity cannot be negative")
	}

	if req.Quantity == 0 {
		if err := s.cartRepo.RemoveItem(ctx, userID, req.ProductID); err != nil {
			if isNotFound(err) {
				return nil, errors.NotFoundError("Item not found in cart").WithError(err)
			}
			return nil, errors.DatabaseError("Failed to remove item from cart").WithError(err)
		}

		return s.GetCart(ctx, userID)
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Cart not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	inCart := false
	for _, item := range cart.Items {
		if item.ProductID == req.ProductID {
			inCart = true
			break
		}
	}
	if !inCart {
		return nil, errors.NotFoundError("Item not found in cart")
	}

	product, err := s.availableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if product.Stock < req.Quantity {
		return nil, insufficientStock(product)
	}

	if err := s.cartRepo.SetItemQuantity(ctx, userID, req.ProductID, req.Quantity); err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Item not found in cart").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to update cart item").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {

	if err := s.cartRepo.DeleteCart(ctx, userID); err != nil {
		return errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}
