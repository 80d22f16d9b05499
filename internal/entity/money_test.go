package entity

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtendAmount(t *testing.T) {
	tests := []struct {
		price, qty, want string
	}{
		{"9", "10", "90"},
		{"0.3333", "3", "1"},
		{"1.2345", "1.5", "1.85"},
		{"0", "10", "0"},
	}

	for _, tt := range tests {
		got := ExtendAmount(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.qty))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("%s x %s: expected %s, got %s", tt.price, tt.qty, tt.want, got)
		}
	}
}

func TestQuoteTotalIsSumOfLineAmounts(t *testing.T) {
	lines := []QuoteLineItem{
		{LineNo: 1, Amount: ExtendAmount(decimal.RequireFromString("0.1"), decimal.RequireFromString("3"))},
		{LineNo: 2, Amount: ExtendAmount(decimal.RequireFromString("0.2"), decimal.RequireFromString("1"))},
	}
	total := quoteTotal(lines)
	if !total.Equal(SumAmounts(lines[0].Amount, lines[1].Amount)) || !total.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected exact total 0.5, got %s", total)
	}
}

func TestCheckQuantityScale(t *testing.T) {
	var v violations
	checkQuantity(&v, "quantity", 1, decimal.RequireFromString("1.0005"), false)
	checkQuantity(&v, "quantity", 2, decimal.RequireFromString("1.005"), false)
	checkPrice(&v, "unitPrice", 3, decimal.RequireFromString("0.00001"), false)

	if len(v) != 2 || v[0].LineNo != 1 || v[1].LineNo != 3 {
		t.Fatalf("unexpected violations: %v", v)
	}
}
