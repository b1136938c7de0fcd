package transcript

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return dec(v).Round(2).InexactFloat64()
}

// dec converts v to a decimal, mapping NaN and infinities to zero.
func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ratio2 returns num/den rounded to two places, or 0 when den is not positive.
func ratio2(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return round2(num.Div(den))
}
