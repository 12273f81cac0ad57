package asset

import "github.com/shopspring/decimal"

// rateScale is the number of decimal places kept for display rates.
const rateScale = 18

// TokensRate returns how many units of to one unit of from buys.
// Zero when from is zero.
func TokensRate(from, to Amount) decimal.Decimal {
	in := from.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return to.ToDecimal().DivRound(in, rateScale)
}

// PercentDiff returns (b - a) / a * 100, rounded to two places. Zero when a is zero.
func PercentDiff(a, b decimal.Decimal) decimal.Decimal {
	if a.IsZero() {
		return decimal.Zero
	}
	return b.Sub(a).Div(a).Mul(decimal.NewFromInt(100)).Round(2)
}
