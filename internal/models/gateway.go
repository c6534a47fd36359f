package models

// InitializePaymentRequest carries everything a hosted gateway needs to open a
// checkout page. Amounts are in minor currency units.
type InitializePaymentRequest struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

type PaymentSession struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode,omitempty"`
	Reference        string `json:"reference"`
}

const GatewayStatusSuccess = "success"

type PaymentVerification struct {
	Status        string `json:"status"`
	Reference     string `json:"reference"`
	TransactionID string `json:"transactionId"`
	AmountMinor   int64  `json:"amount"`
	Currency      string `json:"currency"`
}

func (v *PaymentVerification) Succeeded() bool {
	return v != nil && v.Status == GatewayStatusSuccess
}
