package services

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// attainment is round(min(actual/target, 1) * 100, 2), or 0 without a target.
func attainment(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	ratio := decimal.NewFromFloat(actual).Div(decimal.NewFromFloat(target))
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	return ratio.Mul(hundred).Round(2).InexactFloat64()
}

// percentOf is round(actual/target * 100, 2) without a cap, or 0 without a target.
func percentOf(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return decimal.NewFromFloat(actual).Div(decimal.NewFromFloat(target)).Mul(hundred).Round(2).InexactFloat64()
}

func ratio(num, den float64, places int32) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den)).Round(places).InexactFloat64()
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
