package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Change returns the absolute and percentage move from prevClose to price.
// Both are rounded from the raw difference. A non-finite value collapses to 0
// and percent is exactly 0 when prevClose is 0.
func Change(price, prevClose float64) (change, percent float64) {
	diff := price - prevClose
	change = Round2(diff)
	if math.IsNaN(change) || math.IsInf(change, 0) {
		change = 0
	}
	if prevClose == 0 {
		return change, 0
	}
	percent = Round2(diff / prevClose * 100)
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}
	return change, percent
}
