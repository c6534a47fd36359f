package stripe

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// referenceKey is the metadata key that links a PaymentIntent to an order.
const referenceKey = "reference"

// Gateway takes payments through Stripe Checkout. The order reference travels as
// the session's client_reference_id and as PaymentIntent metadata, which is
// what verification searches on.
type Gateway struct {
	api *client.API
}

func NewGateway(apiKey string) *Gateway {
	return NewGatewayWithBackends(apiKey, nil)
}

// NewGatewayWithBackends lets callers point the SDK at another API host.
func NewGatewayWithBackends(apiKey string, backends *stripe.Backends) *Gateway {
	api := &client.API{}
	api.Init(apiKey, backends)

	return &Gateway{api: api}
}

func (g *Gateway) Name() string {
	return "stripe"
}

func withReference(callbackURL, reference string) string {
	sep := "?"
	if strings.Contains(callbackURL, "?") {
		sep = "&"
	}

	return callbackURL + sep + "reference=" + url.QueryEscape(reference)
}

func (g *Gateway) InitializeTransaction(ctx context.Context, req *models.InitializePaymentRequest) (*models.PaymentSession, error) {

	metadata := map[string]string{referenceKey: req.Reference}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.Reference),
		SuccessURL:        stripe.String(withReference(req.CallbackURL, req.Reference)),
		CancelURL:         stripe.String(withReference(req.CallbackURL, req.Reference)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + req.Reference),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session for %s: %w", req.Reference, err)
	}

	return &models.PaymentSession{
		AuthorizationURL: session.URL,
		AccessCode:       session.ID,
		Reference:        req.Reference,
	}, nil
}

// VerifyTransaction looks the reference up among PaymentIntents. No intent yet
// means the customer has not paid, which is reported as a pending status.
func (g *Gateway) VerifyTransaction(ctx context.Context, reference string) (*models.PaymentVerification, error) {

	params := &stripe.PaymentIntentSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", referenceKey, strings.ReplaceAll(reference, "'", `\'`))

	verification := &models.PaymentVerification{Status: "pending", Reference: reference}

	iter := g.api.PaymentIntents.Search(params)
	for iter.Next() {
		intent := iter.PaymentIntent()

		verification.TransactionID = intent.ID
		verification.AmountMinor = intent.Amount
		verification.Currency = strings.ToUpper(string(intent.Currency))
		verification.Status = string(intent.Status)

		if intent.Status == stripe.PaymentIntentStatusSucceeded {
			verification.Status = models.GatewayStatusSuccess
			break
		}
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to search payment intents for %s: %w", reference, err)
	}

	return verification, nil
}
