package model

import "math"

// ToCents converts a decimal price to integer cents. It reports false when
// the value carries more than two fractional digits, is not finite, or is
// not positive.
func ToCents(price float64) (int64, bool) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, false
	}
	scaled := price * 100
	cents := math.Round(scaled)
	// Allow for binary float noise (e.g. 10.10 * 100 = 1009.9999...).
	if math.Abs(scaled-cents) > 1e-6 {
		return 0, false
	}
	return int64(cents), true
}

// Dollars converts integer cents to a decimal amount for display.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}
