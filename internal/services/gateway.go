package service

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
)

// PaymentGateway is a hosted payment processor. The customer pays on the
// gateway's page; the store only opens the session and later asks for the
// outcome by reference.
type PaymentGateway interface {
	Name() string
	InitializeTransaction(ctx context.Context, req *models.InitializePaymentRequest) (*models.PaymentSession, error)
	VerifyTransaction(ctx context.Context, reference string) (*models.PaymentVerification, error)
}
