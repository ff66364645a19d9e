package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimal places applied when derived values are computed.
const (
	MassPlaces    = 2
	RatePlaces    = 3
	PercentPlaces = 1
)

// Round rounds v half away from zero at the given number of decimal places.
// The value is rounded through its shortest decimal representation, so 1.005
// becomes 1.01 rather than the 1.00 a binary rounding would give.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundMass rounds a mass to MassPlaces.
func RoundMass(v float64) float64 {
	return Round(v, MassPlaces)
}

// RoundRate rounds a per-day rate to RatePlaces.
func RoundRate(v float64) float64 {
	return Round(v, RatePlaces)
}
