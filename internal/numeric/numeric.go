// Package numeric provides decimal helpers shared by the venue adapters.
package numeric

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AveragePriceDigits is the significant-digit budget used for average fill prices.
const AveragePriceDigits = 8

// Parse converts a decimal string into a decimal value.
// On failure, it returns (zero, false).
func Parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// RoundDown truncates value to scale fractional digits, rounding toward zero.
// Applying it twice with the same scale is the same as applying it once.
func RoundDown(value decimal.Decimal, scale int) decimal.Decimal {
	if scale < 0 {
		scale = 0
	}
	return value.Truncate(int32(scale))
}

// Format renders value with exactly scale fractional digits after rounding toward zero.
func Format(value decimal.Decimal, scale int) string {
	if scale < 0 {
		scale = 0
	}
	return RoundDown(value, scale).StringFixed(int32(scale))
}

// ScaleFromIncrement derives a scale from a minimum increment such as 0.001.
// The increment is expected to be a power of ten; other values go through the
// float logarithm and land on whichever scale it rounds to.
func ScaleFromIncrement(increment decimal.Decimal) int {
	if increment.Sign() <= 0 {
		return 0
	}
	f, _ := increment.Float64()
	// half-up rounding, not math.Round's half-away-from-zero
	return -int(math.Floor(math.Log10(f) + 0.5))
}

// ScaleFromStep derives the effective fractional precision from a decimal "step" string.
func ScaleFromStep(step string) int {
	step = strings.TrimSpace(step)
	if step == "" {
		return 0
	}
	idx := strings.IndexByte(step, '.')
	if idx < 0 {
		return 0
	}
	frac := strings.TrimRight(step[idx+1:], "0")
	return len(frac)
}

// DivSignificant divides num by den and rounds the quotient half-up to digits
// significant digits. A zero denominator yields zero without dividing.
func DivSignificant(num, den decimal.Decimal, digits int) decimal.Decimal {
	if den.IsZero() || num.IsZero() {
		return decimal.Zero
	}
	if digits <= 0 {
		return num.Div(den)
	}
	// the quotient's leading digit is at lead or lead-1; the truncated
	// quotient keeps at least one digit past the last significant one
	lead := leadingExponent(num) - leadingExponent(den)
	q, _ := num.QuoRem(den, int32(digits-lead+1))
	return q.Round(int32(digits - 1 - leadingExponent(q)))
}

// leadingExponent is the power of ten of d's most significant digit.
func leadingExponent(d decimal.Decimal) int {
	coefficient := d.Coefficient()
	return len(coefficient.Abs(coefficient).String()) + int(d.Exponent()) - 1
}
