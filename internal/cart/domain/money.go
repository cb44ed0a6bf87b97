package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const currencyPrefix = "$"

// FormatMoney renders an amount for display: two decimals, except whole
// dollar amounts which drop the ".00" ("$45", "$45.50").
func FormatMoney(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")
	if strings.HasPrefix(s, "-") {
		return "-" + currencyPrefix + s[1:]
	}
	return currencyPrefix + s
}
