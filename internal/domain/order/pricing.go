package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingPolicy computes order-level charges from a subtotal.
// Amounts are in the smallest currency unit.
type PricingPolicy struct {
	VATRate               decimal.Decimal
	FreeShippingThreshold int64
	ShippingFee           int64
	Currency              string
}

// DefaultPricingPolicy returns the marketplace defaults: 18% VAT, free
// shipping above 50000 and a flat 5000 fee otherwise.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		VATRate:               decimal.NewFromFloat(0.18),
		FreeShippingThreshold: 50000,
		ShippingFee:           5000,
		Currency:              "RWF",
	}
}

// Validate checks the policy values
func (p PricingPolicy) Validate() error {
	if p.VATRate.IsNegative() || p.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("vat rate must be between 0 and 1, got %s", p.VATRate)
	}
	if p.FreeShippingThreshold < 0 {
		return fmt.Errorf("free shipping threshold cannot be negative")
	}
	if p.ShippingFee < 0 {
		return fmt.Errorf("shipping fee cannot be negative")
	}
	if p.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

// Totals holds the monetary breakdown of an order
type Totals struct {
	Subtotal     int64
	Tax          int64
	ShippingCost int64
	Total        int64
}

// Compute derives tax, shipping and total for a subtotal. Tax is rounded
// half away from zero to the nearest minor unit.
func (p PricingPolicy) Compute(subtotal int64) Totals {
	tax := decimal.NewFromInt(subtotal).Mul(p.VATRate).Round(0).IntPart()
	shipping := p.ShippingFee
	if subtotal > p.FreeShippingThreshold {
		shipping = 0
	}
	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        subtotal + tax + shipping,
	}
}
