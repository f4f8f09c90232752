// README: Discount chain: live subscription rate first, then stored rules by priority.
package pricing

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"mobility-pricing/internal/modules/discountrule"
	"mobility-pricing/internal/types"
)

type ChainResult struct {
	Amount  decimal.Decimal
	Applied []AppliedDiscount
}

// ApplyDiscountChain deducts each percentage from the amount left by the previous
// step. Entries are returned in application order.
func ApplyDiscountChain(amount, subscriptionRate decimal.Decimal, rules []discountrule.Rule, subject discountrule.Subject) ChainResult {
	applied := make([]AppliedDiscount, 0, len(rules)+1)

	if subscriptionRate.IsPositive() {
		deduction := capDeduction(types.RoundMoney(amount.Mul(subscriptionRate)), amount)
		applied = append(applied, AppliedDiscount{
			RuleType:       discountrule.TypeSubscription,
			Percentage:     types.RateToPercent(subscriptionRate),
			AmountDeducted: deduction,
		})
		amount = types.NonNegative(amount.Sub(deduction))
	}

	for _, rule := range orderRules(rules) {
		if !rule.Percentage.IsPositive() || !rule.Matcher.Matches(subject) {
			continue
		}
		deduction := capDeduction(types.PercentOf(amount, rule.Percentage), amount)
		applied = append(applied, AppliedDiscount{
			RuleType:       rule.RuleType,
			Percentage:     rule.Percentage,
			AmountDeducted: deduction,
		})
		amount = types.NonNegative(amount.Sub(deduction))
	}

	return ChainResult{Amount: amount, Applied: applied}
}

// orderRules keeps active, non-subscription rules sorted by priority. The sort is
// stable so equal priorities keep the order the store returned them in.
// Conditions are parsed here for rules that arrive without a matcher.
func orderRules(rules []discountrule.Rule) []discountrule.Rule {
	eligible := lo.FilterMap(rules, func(r discountrule.Rule, _ int) (discountrule.Rule, bool) {
		r.EnsureResolved()
		return r, r.Active && !r.IsSubscription()
	})
	slices.SortStableFunc(eligible, func(a, b discountrule.Rule) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return eligible
}

func capDeduction(deduction, amount decimal.Decimal) decimal.Decimal {
	if deduction.GreaterThan(amount) {
		return types.NonNegative(amount)
	}
	return types.NonNegative(deduction)
}
