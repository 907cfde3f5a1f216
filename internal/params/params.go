// Package params owns the shared pricing parameters: the currency rates and
// the per-kilogram delivery rate kept in the top rows of the sheet. All
// reads and writes go through Cache so concurrent conversations see a
// consistent view.
package params

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrZeroUSDRate is returned when a computation or save would leave the
// system unable to convert into USD. A zero rate is a configuration fault,
// not a user input error.
var ErrZeroUSDRate = errors.New("params: USD rate is zero")

// Params are the global pricing parameters. Absent or hand-mangled sheet
// cells read as zero rather than failing.
type Params struct {
	CNYRate       decimal.Decimal
	USDRate       decimal.Decimal
	JPYToUSDRatio decimal.Decimal
	DeliveryRate  decimal.Decimal
	LastModified  time.Time
}

// Equal compares the four rates. LastModified is bookkeeping, not identity.
func (p Params) Equal(o Params) bool {
	return p.CNYRate.Equal(o.CNYRate) &&
		p.USDRate.Equal(o.USDRate) &&
		p.JPYToUSDRatio.Equal(o.JPYToUSDRatio) &&
		p.DeliveryRate.Equal(o.DeliveryRate)
}
