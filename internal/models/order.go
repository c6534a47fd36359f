package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentDetails struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	Reference     string        `json:"reference"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"-"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          uuid.UUID       `json:"userId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress AddressSnapshot `json:"shippingAddress"`
	PaymentDetails  PaymentDetails  `json:"paymentDetails"`
	OrderStatus     OrderStatus     `json:"orderStatus"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	Tax             decimal.Decimal `json:"tax"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentDetails.Status == PaymentStatusSuccess
}

type CreateOrderRequest struct {
	ShippingAddressID uuid.UUID `json:"shippingAddressId" validate:"required"`
}

type CheckoutResponse struct {
	Order      *Order `json:"order"`
	PaymentURL string `json:"paymentUrl"`
	Reference  string `json:"reference"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus OrderStatus `json:"orderStatus" validate:"required,oneof=pending processing shipped completed cancelled"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type VerifyPaymentResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order"`
}
