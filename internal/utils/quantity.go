package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// QuantizeToStep floors a quantity to an exact multiple of the exchange lot
// step. Decimal arithmetic avoids the float drift that makes exchanges
// reject quantities like 0.30000000000000004.
func QuantizeToStep(quantity float64, step float64) float64 {
	if step <= 0 || quantity <= 0 {
		return 0
	}

	qty := decimal.NewFromFloat(quantity)
	stepDec := decimal.NewFromFloat(step)
	steps := qty.Div(stepDec).Floor()

	result, _ := steps.Mul(stepDec).Float64()

	return result
}

// RoundToDecimalPrecision rounds the quantity down to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}
