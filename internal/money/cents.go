// Package money implements integer-cents arithmetic so that pricing math
// never crosses a float boundary except at the single controlled
// conversion point (RVU/weight products into cents).
package money

import "math"

// Cents is an integer amount of US cents. All monetary fields in the
// domain model are Cents; dollars only appear transiently inside an
// engine's formula before the final RoundToCents call.
type Cents int64

// RoundToCents converts a dollar amount into Cents using banker's
// rounding (round-half-to-even): RVU/weight products convert with
// banker's rounding, never simple round-half-up.
func RoundToCents(dollars float64) Cents {
	return Cents(roundHalfEven(dollars * 100))
}

// roundHalfEven rounds x to the nearest integer, breaking exact .5 ties
// toward the nearest even integer.
func roundHalfEven(x float64) int64 {
	floor := math.Floor(x)
	diff := x - floor
	switch {
	case diff < 0.5:
		return int64(floor)
	case diff > 0.5:
		return int64(floor) + 1
	default:
		// Exact tie: choose the even neighbor.
		if int64(floor)%2 == 0 {
			return int64(floor)
		}
		return int64(floor) + 1
	}
}

// MulFloat multiplies a cents amount by a float factor (a modifier
// multiplier, a units count, a utilization weight), rounding the result
// with banker's rounding.
func (c Cents) MulFloat(factor float64) Cents {
	return RoundToCents(float64(c) / 100 * factor)
}

// Add returns c + other.
func (c Cents) Add(other Cents) Cents {
	return c + other
}

// Sub returns c - other.
func (c Cents) Sub(other Cents) Cents {
	return c - other
}

// Min returns the smaller of c and other.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// Dollars returns the amount as a float64 number of dollars, used only
// at response-formatting time when the caller requested format=decimal.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}
