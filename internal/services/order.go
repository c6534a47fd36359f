package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/pkg/events"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.CheckoutResponse, error)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page int, pageSize int) ([]*models.Order, int, error)
	ListOrders(ctx context.Context, page int, pageSize int) ([]*models.Order, int, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

// CheckoutConfig carries the settings order creation needs from the app config.
type CheckoutConfig struct {
	BaseURL  string
	Currency string
}

type orderService struct {
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	gateway     PaymentGateway
	publisher   events.Publisher
	cfg         CheckoutConfig
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	gateway PaymentGateway,
	publisher events.Publisher,
	cfg CheckoutConfig,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		addressRepo: addressRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		gateway:     gateway,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// newReference builds identifiers of the form PREFIX-<unix millis>-<8 hex>.
func newReference(prefix string) (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), strings.ToUpper(suffix)), nil
}

func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("key", event.Key),
			slog.Any("error", err),
		)
	}
}

// snapshotItems turns the cart into order lines priced at the current catalog
// price. Every product must still be sold and have enough stock.
func (s *orderService) snapshotItems(ctx context.Context, cart *models.Cart) ([]models.OrderItem, error) {

	items := make([]models.OrderItem, 0, len(cart.Items))

	for _, line := range cart.Items {
		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil && !isNotFound(err) {
			return nil, errors.DatabaseError("Failed to fetch product").WithError(err)
		}

		if product == nil || !product.IsActive {
			name := "item"
			if product != nil {
				name = product.Name
			}
			return nil, errors.BadRequestError(fmt.Sprintf("Product %s is no longer available", name))
		}

		if product.Stock < line.Quantity {
			return nil, insufficientStock(product)
		}

		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			Slug:      product.Slug,
			Image:     product.PrimaryImage(),
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
	}

	return items, nil
}

// CreateOrder freezes the cart into a pending order and opens a payment
// session for it. Stock and cart stay untouched until the payment is verified.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.CheckoutResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("User not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch user").WithError(err)
	}

	address, err := s.addressRepo.GetAddress(ctx, userID, req.ShippingAddressID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Shipping address not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch shipping address").WithError(err)
	}

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}
	if cart.IsEmpty() {
		return nil, errors.BadRequestError("Cart is empty")
	}

	items, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	orderNumber, err := newReference("ORD")
	if err != nil {
		return nil, errors.InternalError("Failed to generate order number").WithError(err)
	}

	reference, err := newReference("PAY")
	if err != nil {
		return nil, errors.InternalError("Failed to generate payment reference").WithError(err)
	}

	totals := Calculate(items)

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           items,
		ShippingAddress: address.Snapshot(),
		PaymentDetails: models.PaymentDetails{
			Method:    s.gateway.Name(),
			Status:    models.PaymentStatusPending,
			Reference: reference,
		},
		OrderStatus:  models.OrderStatusPending,
		TotalAmount:  totals.Total,
		ShippingCost: totals.ShippingCost,
		Tax:          totals.Tax,
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	session, err := s.gateway.InitializeTransaction(ctx, &models.InitializePaymentRequest{
		Email:       user.Email,
		AmountMinor: ToMinorUnits(order.TotalAmount),
		Currency:    s.cfg.Currency,
		Reference:   reference,
		CallbackURL: strings.TrimRight(s.cfg.BaseURL, "/") + "/order-confirmation",
		Metadata: map[string]string{
			"orderId":     order.ID.String(),
			"orderNumber": order.OrderNumber,
		},
	})
	if err != nil {
		logger.Error("Payment initialization failed, order left pending",
			slog.String("orderId", order.ID.String()),
			slog.String("reference", reference),
			slog.Any("error", err),
		)
		return nil, errors.ThirdPartyError("Failed to initialize payment").WithError(err)
	}

	metrics.OrderCreated()
	publish(ctx, s.publisher, events.New(events.OrderCreated, order.ID.String(), order))

	return &models.CheckoutResponse{
		Order:      order,
		PaymentURL: session.AuthorizationURL,
		Reference:  reference,
	}, nil
}

// GetOrderByID returns the order only when it belongs to userID.
func (s *orderService) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByIDForUser(ctx, orderID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page int, pageSize int) ([]*models.Order, int, error) {

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) ListOrders(ctx context.Context, page int, pageSize int) ([]*models.Order, int, error) {

	orders, total, err := s.orderRepo.ListOrders(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

// UpdateOrderStatus sets any valid status; transitions are not restricted.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	if !status.IsValid() {
		return nil, errors.BadRequestError(fmt.Sprintf("Invalid order status: %s", status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to update order status").WithError(err)
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusChanged(string(status))
	publish(ctx, s.publisher, events.New(events.OrderStatusChanged, order.ID.String(), map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      status,
	}))

	return order, nil
}
