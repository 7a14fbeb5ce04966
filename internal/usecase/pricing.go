package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// Pricing computes order totals. It is a pure value type.
type Pricing struct {
	TaxRate               decimal.Decimal
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// NewPricing builds Pricing from configuration.
func NewPricing(cfg *config.Config) Pricing {
	return Pricing{
		TaxRate:               cfg.TaxRate,
		ShippingCost:          cfg.ShippingCost,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
}

// Compute returns subtotal, tax, shipping and total for lines.
// Tax is rounded to cents; total is the exact sum of the rounded parts.
func (p Pricing) Compute(lines []model.Line) model.Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Total())
	}

	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := p.ShippingCost
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return model.Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        subtotal.Add(tax).Add(shipping),
	}
}
