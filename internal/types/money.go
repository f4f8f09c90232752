// README: Fixed-point money helpers shared by the pricing modules.
package types

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits kept for every amount.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to MoneyScale digits.
// All amounts in the pipeline are non-negative so this is plain half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MoneyFromInt builds an exact amount from whole currency units.
func MoneyFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MoneyFromFloat converts an externally supplied float into a rounded amount.
// Only wire DTOs carry floats; nothing downstream of the conversion does.
func MoneyFromFloat(v float64) decimal.Decimal {
	return RoundMoney(decimal.NewFromFloat(v))
}

// RateFromFloat converts a fraction such as 0.2 without rounding it to money scale.
func RateFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// PercentOf returns round(amount * pct / 100).
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(pct.Div(hundred)))
}

// RateToPercent turns 0.2 into 20.
func RateToPercent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
