package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://api.paystack.co"

// Client talks to the Paystack transaction API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Name() string {
	return "paystack"
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// InitializeTransaction opens a hosted checkout for the amount in minor units.
func (c *Client) InitializeTransaction(ctx context.Context, req *models.InitializePaymentRequest) (*models.PaymentSession, error) {

	body := initializeRequest{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}

	var data initializeData
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("failed to initialize transaction %s: %w", req.Reference, err)
	}

	return &models.PaymentSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// VerifyTransaction reports the gateway's view of a transaction. A payment that
// did not go through is not an error; callers inspect Status.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*models.PaymentVerification, error) {

	var data verifyData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, fmt.Errorf("failed to verify transaction %s: %w", reference, err)
	}

	return &models.PaymentVerification{
		Status:        data.Status,
		Reference:     data.Reference,
		TransactionID: strconv.FormatInt(data.ID, 10),
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, dest any) error {

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}

// APIError is a response Paystack rejected.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack error (status %d): %s", e.StatusCode, e.Message)
}
