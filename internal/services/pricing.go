package service

import (
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50)
	FlatShippingFee       = decimal.NewFromInt(10)
	TaxRate               = decimal.RequireFromString("0.10")
)

type Totals struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// Calculate prices a set of order lines. Shipping is free from the threshold
// up and tax is charged on the subtotal only.
func Calculate(items []models.OrderItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)

	shipping := FlatShippingFee
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(TaxRate).Round(2)

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal.Add(shipping).Add(tax),
	}
}

// ToMinorUnits converts a currency amount to the gateway's minor unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
