// Package pricing derives cart totals. Totals are never stored; callers
// recompute them from the current cart whenever they need them.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(999)
	FlatShippingFee       = decimal.NewFromInt(50)
	DiscountThreshold     = decimal.NewFromInt(1499)
	DiscountRate          = decimal.New(1, -1)
)

// Subtotal sums the line totals of items.
func Subtotal(items []domain.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Shipping is free strictly above FreeShippingThreshold.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// Discount applies DiscountRate strictly above DiscountThreshold.
func Discount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(DiscountThreshold) {
		return subtotal.Mul(DiscountRate)
	}
	return decimal.Zero
}

func ForSubtotal(subtotal decimal.Decimal) domain.Totals {
	shipping := Shipping(subtotal)
	discount := Discount(subtotal)
	return domain.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(shipping).Sub(discount),
	}
}

func Compute(items []domain.CartItem) domain.Totals {
	return ForSubtotal(Subtotal(items))
}

// Format renders an amount with two fractional digits, e.g. "1800.00".
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Count is the number of units across all lines.
func Count(items []domain.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
