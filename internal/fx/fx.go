package fx

import (
	"fmt"

	"github.com/orbitpay/orbitpay/internal/currency"
)

// Converter derives exchange rates from a fixed table of units per US dollar.
// Rates are deterministic: the same pair always yields the same rate.
type Converter struct {
	perUSD map[currency.Currency]float64
}

// NewConverter builds a converter with the static rate table.
func NewConverter() *Converter {
	return &Converter{
		perUSD: map[currency.Currency]float64{
			currency.USD: 1.0,
			currency.INR: 83.0,
			currency.EUR: 0.92,
		},
	}
}

// Rate returns the multiplier applied to an amount in from-currency to express
// it in to-currency. A same-currency conversion is exactly 1.0 and never
// consults the table.
func (c *Converter) Rate(from, to currency.Currency) (float64, error) {
	if from == to {
		return 1.0, nil
	}
	fromPerUSD, ok := c.perUSD[from]
	if !ok {
		return 0, fmt.Errorf("no rate for currency %s", from)
	}
	toPerUSD, ok := c.perUSD[to]
	if !ok {
		return 0, fmt.Errorf("no rate for currency %s", to)
	}
	return toPerUSD / fromPerUSD, nil
}
