package decimalx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseLocalized parses a price rendered with european separators,
// e.g. "1.234,56" -> 1234.56.
func ParseLocalized(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	res, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return res, nil
}

// ChangePct returns (current - previous) / previous * 100.
func ChangePct(previous, current float64) float64 {
	prev := decimal.NewFromFloat(previous)
	cur := decimal.NewFromFloat(current)
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
