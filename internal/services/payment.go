package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/cache"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/pkg/events"
	"github.com/google/uuid"
)

const PaymentVerifiedMessage = "Payment verified successfully"

type PaymentService interface {
	VerifyPayment(ctx context.Context, userID uuid.UUID, reference string) (*models.VerifyPaymentResponse, error)
}

type paymentService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	gateway   PaymentGateway
	notifier  NotificationService
	publisher events.Publisher
	cache     cache.Cache
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
	notifier NotificationService,
	publisher events.Publisher,
	cache cache.Cache,
) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		gateway:   gateway,
		notifier:  notifier,
		publisher: publisher,
		cache:     cache,
	}
}

func verified(order *models.Order) *models.VerifyPaymentResponse {
	return &models.VerifyPaymentResponse{Message: PaymentVerifiedMessage, Order: order}
}

// VerifyPayment confirms a payment with the gateway and fulfils the order the
// reference belongs to. Only the call that moves the payment to success
// decrements stock and clears the cart, and it does both atomically with the
// payment update, so a failure leaves the order pending and safe to retry.
// Repeats return the paid order as is.
func (s *paymentService) VerifyPayment(ctx context.Context, userID uuid.UUID, reference string) (*models.VerifyPaymentResponse, error) {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("reference", reference))

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.BadRequestError("Payment reference is required")
	}

	verification, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		metrics.PaymentVerified(metrics.VerificationError)
		return nil, errors.ThirdPartyError("Failed to verify payment").WithError(err)
	}

	if !verification.Succeeded() {
		metrics.PaymentVerified(metrics.VerificationDeclined)
		logger.Warn("Gateway reported an unsuccessful payment", slog.String("status", verification.Status))
		return nil, errors.PaymentFailedError("Payment verification failed")
	}

	order, err := s.orderRepo.GetOrderByReference(ctx, reference, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}
		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.IsPaid() {
		metrics.PaymentVerified(metrics.VerificationDuplicate)
		return verified(order), nil
	}

	transitioned, err := s.orderRepo.FulfillPayment(ctx, order, verification.TransactionID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to complete order payment").WithError(err)
	}

	if !transitioned {
		// a concurrent verification already fulfilled this order
		metrics.PaymentVerified(metrics.VerificationDuplicate)

		current, err := s.orderRepo.GetOrderByID(ctx, order.ID)
		if err != nil {
			return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
		}

		return verified(current), nil
	}

	order.PaymentDetails.Status = models.PaymentStatusSuccess
	order.PaymentDetails.TransactionID = verification.TransactionID
	order.OrderStatus = models.OrderStatusProcessing

	slugs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		slugs = append(slugs, cache.Key(cache.ProductSlugPrefix, item.Slug))
	}

	if err := s.cache.Delete(ctx, slugs...); err != nil {
		logger.Warn("Failed to invalidate product cache", slog.Any("error", err))
	}

	metrics.PaymentVerified(metrics.VerificationPaid)
	metrics.RevenueRecorded(order.TotalAmount.InexactFloat64())

	s.notify(ctx, logger, order)
	publish(ctx, s.publisher, events.New(events.OrderPaid, order.ID.String(), order))

	logger.Info("Payment verified", slog.String("orderId", order.ID.String()))

	return verified(order), nil
}

func (s *paymentService) notify(ctx context.Context, logger *slog.Logger, order *models.Order) {

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logger.Warn("Skipping order confirmation, user lookup failed", slog.Any("error", err))
		return
	}

	if err := s.notifier.SendOrderConfirmation(ctx, user, order); err != nil {
		logger.Warn("Failed to send order confirmation", slog.Any("error", err))
	}
}
