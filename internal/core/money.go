// Package core provides the forecast domain: projects, roster and forecast
// entries, the fiscal calendar and the forecast matrix.
//
// This file contains amount parsing and formatting. Amounts are decimals so
// that sums of daily rates stay exact.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input from a matrix cell into a decimal amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, as are
// negative values. Blank input is zero, like clearing a cell. Anything that is
// not a number returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("1500")   -> 1500, nil
//	ParseAmount("12,5")   -> 12.5, nil
//	ParseAmount("")       -> 0, nil
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for exports.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
