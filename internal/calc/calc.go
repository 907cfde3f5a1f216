// Package calc is the landed-cost pipeline: pure functions from entry
// fields and the current pricing parameters to the derived monetary fields.
// No rounding happens here; formatting is a display concern.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/YouBrin/BotChina/internal/params"
)

// Input are the raw values collected during item entry.
type Input struct {
	PriceCNY      decimal.Decimal
	Weight        decimal.Decimal
	ShippingPerKg decimal.Decimal
	PackageCost   decimal.Decimal
}

// Breakdown are the derived cost fields persisted with an item.
type Breakdown struct {
	PriceLocal         decimal.Decimal
	ShippingTotalUSD   decimal.Decimal
	ShippingTotalLocal decimal.Decimal
	TotalLocal         decimal.Decimal
	TotalForeign       decimal.Decimal
}

// PriceLocal converts a CNY price into the local currency.
func PriceLocal(p params.Params, priceCNY decimal.Decimal) decimal.Decimal {
	return priceCNY.Mul(p.CNYRate)
}

// ShippingTotalUSD is the full shipping cost in USD: the per-kilogram
// carrier rate plus the flat delivery rate, times the weight.
func ShippingTotalUSD(p params.Params, perKg, weight decimal.Decimal) decimal.Decimal {
	return perKg.Add(p.DeliveryRate).Mul(weight)
}

// Compute derives every cost field from raw entry values in one pass.
func Compute(p params.Params, in Input) (Breakdown, error) {
	return Aggregate(p,
		PriceLocal(p, in.PriceCNY),
		ShippingTotalUSD(p, in.ShippingPerKg, in.Weight),
		in.PackageCost)
}

// Aggregate finishes a breakdown whose conversion fields were already
// computed at earlier entry steps, so a mid-entry parameter change does not
// silently rewrite values the user has been shown.
func Aggregate(p params.Params, priceLocal, shippingTotalUSD, packageCost decimal.Decimal) (Breakdown, error) {
	if p.USDRate.IsZero() {
		return Breakdown{}, params.ErrZeroUSDRate
	}
	b := Breakdown{
		PriceLocal:       priceLocal,
		ShippingTotalUSD: shippingTotalUSD,
	}
	b.ShippingTotalLocal = b.ShippingTotalUSD.Mul(p.USDRate)
	b.TotalLocal = b.PriceLocal.Add(b.ShippingTotalLocal).Add(packageCost)
	b.TotalForeign = b.TotalLocal.Div(p.USDRate)
	return b, nil
}
