package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is stamped on every committed draft.
const DefaultCurrency = "UZS"

// FormatAmount renders an amount with comma thousands separators and at most two decimals,
// matching how the console displays prices ("150,000", "1,250.5").
func FormatAmount(amount decimal.Decimal) string {
	text := amount.Round(2).String()
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	whole, frac, hasFrac := strings.Cut(text, ".")

	var b strings.Builder
	lead := len(whole) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(whole[:lead])
	for i := lead; i < len(whole); i += 3 {
		b.WriteByte(',')
		b.WriteString(whole[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
