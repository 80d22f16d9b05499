package entity

import (
	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits kept for money amounts.
	AmountScale = 2
	// UnitPriceScale is the number of fractional digits accepted for unit prices.
	UnitPriceScale = 4
	// QuantityScale is the number of fractional digits accepted for quantities.
	QuantityScale = 3
)

// ExtendAmount returns unitPrice × quantity rounded to AmountScale.
// Every stored amount is produced here; client supplied amounts are never trusted.
func ExtendAmount(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(quantity).Round(AmountScale)
}

func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}

	return total
}

func checkQuantity(v *violations, field string, lineNo int, qty decimal.Decimal, allowZero bool) {
	switch {
	case qty.IsNegative():
		v.add(field, lineNo, "must not be negative")
	case qty.IsZero() && !allowZero:
		v.add(field, lineNo, "must be greater than zero")
	case !qty.Equal(qty.Round(QuantityScale)):
		v.add(field, lineNo, "has too many decimal places")
	}
}

func checkPrice(v *violations, field string, lineNo int, price decimal.Decimal, allowZero bool) {
	switch {
	case price.IsNegative():
		v.add(field, lineNo, "must not be negative")
	case price.IsZero() && !allowZero:
		v.add(field, lineNo, "must be greater than zero")
	case !price.Equal(price.Round(UnitPriceScale)):
		v.add(field, lineNo, "has too many decimal places")
	}
}
