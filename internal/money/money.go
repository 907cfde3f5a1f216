// Package money parses and formats monetary amounts. Users of the bot (and
// the sheet itself) write decimals with either a comma or a dot separator,
// so all parsing goes through here.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrParse marks input that is not a usable number.
var ErrParse = errors.New("money: not a number")

// ParseDecimal parses a decimal treating a comma as the decimal separator,
// so "12,5" and "12.5" both yield 12.5.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return d, nil
}

// ParseLoose parses like ParseDecimal but maps absent or malformed input to
// zero. Used for sheet cells, which may be empty or hand-edited.
func ParseLoose(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders an amount for display with two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
