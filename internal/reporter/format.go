package reporter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatDateBR renders a date as dd/mm/yyyy for display. Zero (null) dates
// render as the empty string.
func FormatDateBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatCurrencyBR renders an amount as Brazilian currency for display:
// "R$ 1.234,56". Null amounts render as the empty string. Display
// formatting only; canonical values are never altered.
func FormatCurrencyBR(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}

	s := amount.Decimal.StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	out := "R$ " + grouped.String() + "," + fracPart
	if negative {
		out = "R$ -" + grouped.String() + "," + fracPart
	}
	return out
}

// nullable wraps a known-valid decimal for the display helpers.
func nullable(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// formatAmount renders a canonical amount for data outputs (CSV/JSON side
// tables), preserving the plain decimal form. Null amounts render empty.
func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.StringFixed(2)
}
