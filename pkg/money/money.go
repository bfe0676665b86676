// Package money holds the cent-level rounding rules shared by the decision engines.
package money

import "github.com/shopspring/decimal"

// Cent is the smallest price step.
const Cent = 0.01

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FloorCents truncates toward negative infinity at two decimals.
func FloorCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundFloor(2).Float64()
	return f
}

// CeilCents rounds toward positive infinity at two decimals.
func CeilCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundCeil(2).Float64()
	return f
}

// Equal2 compares two prices at two-decimal precision.
func Equal2(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

// Sub returns a-b without binary float drift, rounded to cents.
func Sub(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Mul returns a*b rounded to cents.
func Mul(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Parse reads a decimal string. ok is false for empty or malformed input.
func Parse(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// Format renders a price with two decimals.
func Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
