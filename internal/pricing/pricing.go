// Package pricing computes order totals from a cart snapshot. It is pure:
// no I/O, no mutation, deterministic for a given input.
package pricing

import (
	"storefront-orders/internal/domain"
)

// Calculator derives order totals. The tax rate is fixed configuration in
// basis points (1000 = 10%), not re-derived from external data.
type Calculator struct {
	taxRateBPS int64
}

func NewCalculator(taxRateBPS int64) Calculator {
	if taxRateBPS < 0 {
		taxRateBPS = 0
	}
	return Calculator{taxRateBPS: taxRateBPS}
}

// Compute sums line totals, applies the configured tax rate, adds the
// caller-supplied shipping cost, and subtracts the coupon discount. The total
// is clamped at zero. An empty cart is a caller error: checkout must reject it
// before pricing runs.
func (c Calculator) Compute(lines []domain.CartLine, discountCents, shippingCents int64) (domain.Totals, error) {
	if len(lines) == 0 {
		return domain.Totals{}, domain.Validationf("cart is empty")
	}
	if discountCents < 0 {
		return domain.Totals{}, domain.Validationf("discount must not be negative")
	}
	if shippingCents < 0 {
		return domain.Totals{}, domain.Validationf("shipping cost must not be negative")
	}

	var subtotal int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return domain.Totals{}, domain.Validationf("line for product %s has non-positive quantity", l.ProductID)
		}
		if l.UnitPriceCents < 0 {
			return domain.Totals{}, domain.Validationf("line for product %s has negative price", l.ProductID)
		}
		subtotal += l.UnitPriceCents * int64(l.Quantity)
	}

	tax := roundedTax(subtotal, c.taxRateBPS)
	total := subtotal + tax + shippingCents - discountCents
	if total < 0 {
		total = 0
	}

	return domain.Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shippingCents,
		DiscountCents: discountCents,
		TotalCents:    total,
	}, nil
}

// roundedTax applies the basis-point rate with half-up rounding in cents.
func roundedTax(subtotalCents, rateBPS int64) int64 {
	return (subtotalCents*rateBPS + 5000) / 10000
}
