package cart

import (
	"github.com/shopspring/decimal"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
)

var oneHundred = decimal.NewFromInt(100)

// bundleFinalPrice applies a percentage discount to the frozen original
// unit price. The unit price is rounded to cents here, at freeze time,
// so the line carries exactly what will be charged.
func bundleFinalPrice(original, percent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percent.Div(oneHundred))
	return original.Mul(factor).Round(2)
}

// totals holds the unrounded cart aggregates. Rounding to cents happens
// once, at the response boundary, never inside the accumulation.
type totals struct {
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	Total         decimal.Decimal
}

func computeTotals(items []models.CartItem) totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.OriginalPrice.Mul(qty))
		discount = discount.Add(lineDiscount(item))
	}
	return totals{
		Subtotal:      subtotal,
		TotalDiscount: discount,
		Total:         subtotal.Sub(discount),
	}
}

// lineDiscount is (original - final) × qty, floored at zero so a line
// whose final price somehow exceeds its original never produces a
// negative discount.
func lineDiscount(item models.CartItem) decimal.Decimal {
	perUnit := item.OriginalPrice.Sub(item.FinalPrice)
	if perUnit.IsNegative() {
		perUnit = decimal.Zero
	}
	return perUnit.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func lineSubtotal(item models.CartItem) decimal.Decimal {
	return item.FinalPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
