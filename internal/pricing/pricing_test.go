package pricing

import (
	"errors"
	"testing"

	"storefront-orders/internal/domain"
)

func TestComputeStandardCheckout(t *testing.T) {
	calc := NewCalculator(1000) // 10%
	lines := []domain.CartLine{
		{ProductID: "p7", Quantity: 2, UnitPriceCents: 1000},
	}

	totals, err := calc.Compute(lines, 0, 599)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.SubtotalCents != 2000 {
		t.Fatalf("subtotal = %d, want 2000", totals.SubtotalCents)
	}
	if totals.TaxCents != 200 {
		t.Fatalf("tax = %d, want 200", totals.TaxCents)
	}
	if totals.TotalCents != 2799 {
		t.Fatalf("total = %d, want 2799", totals.TotalCents)
	}
	if err := totals.Check(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestComputeMultipleLinesWithDiscount(t *testing.T) {
	calc := NewCalculator(1000)
	lines := []domain.CartLine{
		{ProductID: "a", Quantity: 3, UnitPriceCents: 1250},
		{ProductID: "b", Quantity: 1, UnitPriceCents: 4999},
	}

	totals, err := calc.Compute(lines, 500, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.SubtotalCents != 8749 {
		t.Fatalf("subtotal = %d, want 8749", totals.SubtotalCents)
	}
	if totals.TaxCents != 875 {
		t.Fatalf("tax = %d, want 875", totals.TaxCents)
	}
	if totals.TotalCents != 9124 {
		t.Fatalf("total = %d, want 9124", totals.TotalCents)
	}
	if err := totals.Check(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestComputeTotalClampedAtZero(t *testing.T) {
	calc := NewCalculator(0)
	lines := []domain.CartLine{{ProductID: "a", Quantity: 1, UnitPriceCents: 100}}

	totals, err := calc.Compute(lines, 10000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.TotalCents != 0 {
		t.Fatalf("total = %d, want 0", totals.TotalCents)
	}
	if err := totals.Check(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func TestComputeEmptyCartRejected(t *testing.T) {
	calc := NewCalculator(1000)
	_, err := calc.Compute(nil, 0, 0)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeRejectsBadInputs(t *testing.T) {
	calc := NewCalculator(1000)
	lines := []domain.CartLine{{ProductID: "a", Quantity: 1, UnitPriceCents: 100}}

	cases := []struct {
		name     string
		lines    []domain.CartLine
		discount int64
		shipping int64
	}{
		{"negative discount", lines, -1, 0},
		{"negative shipping", lines, 0, -1},
		{"zero quantity", []domain.CartLine{{ProductID: "a", Quantity: 0, UnitPriceCents: 100}}, 0, 0},
		{"negative price", []domain.CartLine{{ProductID: "a", Quantity: 1, UnitPriceCents: -5}}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calc.Compute(tc.lines, tc.discount, tc.shipping)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTaxRoundingHalfUp(t *testing.T) {
	calc := NewCalculator(825) // 8.25%
	lines := []domain.CartLine{{ProductID: "a", Quantity: 1, UnitPriceCents: 999}}

	totals, err := calc.Compute(lines, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 999 * 0.0825 = 82.4175 -> 82
	if totals.TaxCents != 82 {
		t.Fatalf("tax = %d, want 82", totals.TaxCents)
	}
}
