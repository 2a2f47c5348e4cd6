// Package core provides money parsing and handling utilities.
//
// This file contains the amount parser used for form input and for
// records read back from storage.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a positive amount.
//
// Surrounding whitespace is ignored. Anything decimal.NewFromString rejects is
// ErrInvalidAmount; zero and negative values are ErrNonPositiveAmount.
//
// Examples:
//   ParseAmount("1000")   -> 1000, nil
//   ParseAmount("12.50")  -> 12.5, nil
//   ParseAmount("1e3")    -> 1000, nil
//   ParseAmount("-3")     -> ErrNonPositiveAmount
//   ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNonPositiveAmount, d.String())
	}
	return d, nil
}

// FormatAmount renders an amount the way it is persisted.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
