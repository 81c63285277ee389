package pricing

import "github.com/shopspring/decimal"

// All monetary figures inside the engine are decimals rounded to two places
// with round-half-up semantics. Binary floats never enter the computation.

// Round2 rounds a monetary amount to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// minDecimal returns the smaller of two decimals.
func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// maxDecimal returns the larger of two decimals.
func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// toUSD converts a GBP amount to USD at the given fixed rate, rounded to two
// places. The same rate is applied uniformly across a quote so the GBP and
// USD figures stay mutually consistent.
func toUSD(gbp, rate decimal.Decimal) decimal.Decimal {
	return Round2(gbp.Mul(rate))
}
