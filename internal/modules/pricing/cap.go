// README: Daily cap enforcement applied after every percentage discount.
package pricing

import (
	"github.com/shopspring/decimal"

	"mobility-pricing/internal/modules/discountrule"
)

type CapResult struct {
	Final      decimal.Decimal
	CapReached bool
	// Entry is the synthetic breakdown line, nil when the cap did not apply.
	Entry *AppliedDiscount
}

var fullPercent = decimal.NewFromInt(100)

func ApplyDailyCap(amount, dailyCap, currentSpent decimal.Decimal) CapResult {
	remaining := decimal.Max(dailyCap.Sub(currentSpent), decimal.Zero)

	if !remaining.IsPositive() {
		return CapResult{
			Final:      decimal.Zero,
			CapReached: true,
			Entry: &AppliedDiscount{
				RuleType:       discountrule.TypeDailyCap,
				Percentage:     fullPercent,
				AmountDeducted: amount,
			},
		}
	}

	if amount.GreaterThan(remaining) {
		return CapResult{
			Final:      remaining,
			CapReached: true,
			Entry: &AppliedDiscount{
				RuleType:       discountrule.TypeDailyCapLimit,
				Percentage:     decimal.Zero,
				AmountDeducted: amount.Sub(remaining),
			},
		}
	}

	return CapResult{Final: amount}
}
