package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, validator: validator.New()}
}

// VerifyPayment godoc
//
//	@Summary		Verify a checkout payment
//	@Description	Confirms the payment with the provider and marks the order paid. Verifying an already paid order returns it unchanged.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		models.VerifyPaymentRequest		true	"Payment reference returned at checkout"
//	@Success		200		{object}	models.VerifyPaymentResponse	"Payment verified"
//	@Failure		400		{object}	response.ErrorResponse			"Missing reference or payment declined"
//	@Failure		401		{object}	response.ErrorResponse			"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse			"Order not found"
//	@Failure		500		{object}	response.ErrorResponse			"Payment provider unavailable"
//	@Security		BearerAuth
//	@Router			/payment/verify [post]
func (h *PaymentHandler) VerifyPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized payment verification attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.VerifyPaymentRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid verify payment input")
			return
		}

		logger = logger.With(slog.String("reference", req.Reference))

		resp, err := h.paymentService.VerifyPayment(r.Context(), claims.UserID, req.Reference)
		if err != nil {
			logger.Warn("Payment verification failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Payment verified", slog.String("orderId", resp.Order.ID.String()))
		response.Success(w, http.StatusOK, resp)
	}
}
