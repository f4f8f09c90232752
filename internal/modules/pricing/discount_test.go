// README: Discount chain tests (ordering, eligibility, rounding).
package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-pricing/internal/modules/discountrule"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rule(id int64, ruleType, pct string, priority int, condition string) discountrule.Rule {
	r := discountrule.Rule{
		ID:         id,
		RuleType:   ruleType,
		Percentage: dec(pct),
		Priority:   priority,
		Condition:  condition,
		Active:     true,
	}
	r.Resolve()
	return r
}

func deductions(applied []AppliedDiscount) []string {
	out := make([]string, len(applied))
	for i, a := range applied {
		out[i] = a.AmountDeducted.StringFixed(2)
	}
	return out
}

func TestApplyDiscountChain_Multiplicative(t *testing.T) {
	rules := []discountrule.Rule{
		rule(1, "PROMO", "30", 1, "ALL"),
		rule(2, discountrule.TypeOffPeak, "20", 2, "ALL"),
		rule(3, discountrule.TypeLoyalty, "10", 3, "ALL"),
	}
	got := ApplyDiscountChain(dec("500"), decimal.Zero, rules, discountrule.Subject{TransportType: "BRT"})

	assert.Equal(t, []string{"150.00", "70.00", "28.00"}, deductions(got.Applied))
	assert.Equal(t, "252.00", got.Amount.StringFixed(2))
}

func TestApplyDiscountChain_SubscriptionRateFirst(t *testing.T) {
	rules := []discountrule.Rule{
		rule(1, discountrule.TypeSubscription, "50", 0, "ALL"),
		rule(2, discountrule.TypeOffPeak, "20", 1, "ALL"),
	}
	got := ApplyDiscountChain(dec("500"), dec("0.3"), rules, discountrule.Subject{TransportType: "BUS"})

	require.Len(t, got.Applied, 2)
	assert.Equal(t, discountrule.TypeSubscription, got.Applied[0].RuleType)
	assert.True(t, got.Applied[0].Percentage.Equal(dec("30")))
	assert.Equal(t, discountrule.TypeOffPeak, got.Applied[1].RuleType)
	assert.Equal(t, []string{"150.00", "70.00"}, deductions(got.Applied))
	assert.Equal(t, "280.00", got.Amount.StringFixed(2))
}

func TestApplyDiscountChain_PriorityOrderIsStable(t *testing.T) {
	rules := []discountrule.Rule{
		rule(1, "THIRD", "10", 5, ""),
		rule(2, "FIRST", "10", 1, ""),
		rule(3, "SECOND_A", "10", 2, ""),
		rule(4, "SECOND_B", "10", 2, ""),
	}
	got := ApplyDiscountChain(dec("100"), decimal.Zero, rules, discountrule.Subject{TransportType: "BUS"})

	types := make([]string, len(got.Applied))
	for i, a := range got.Applied {
		types[i] = a.RuleType
	}
	assert.Equal(t, []string{"FIRST", "SECOND_A", "SECOND_B", "THIRD"}, types)
}

func TestApplyDiscountChain_SkipsIneligible(t *testing.T) {
	inactive := rule(1, "INACTIVE", "50", 1, "ALL")
	inactive.Active = false
	rules := []discountrule.Rule{
		inactive,
		rule(2, "ZERO", "0", 2, "ALL"),
		rule(3, "TER_ONLY", "40", 3, "TER"),
		rule(4, "PASS_ONLY", "40", 4, "PASS:MONTHLY"),
		rule(5, "BUS_ONLY", "10", 5, "BUS"),
	}
	got := ApplyDiscountChain(dec("300"), decimal.Zero, rules, discountrule.Subject{TransportType: "bus"})

	require.Len(t, got.Applied, 1)
	assert.Equal(t, "BUS_ONLY", got.Applied[0].RuleType)
	assert.Equal(t, "270.00", got.Amount.StringFixed(2))
}

func TestApplyDiscountChain_NeverNegative(t *testing.T) {
	rules := []discountrule.Rule{
		rule(1, "FULL", "100", 1, "ALL"),
		rule(2, "AFTER", "50", 2, "ALL"),
	}
	got := ApplyDiscountChain(dec("150"), dec("1.5"), rules, discountrule.Subject{TransportType: "BUS"})

	assert.True(t, got.Amount.IsZero())
	total := decimal.Zero
	for _, a := range got.Applied {
		assert.False(t, a.AmountDeducted.IsNegative())
		total = total.Add(a.AmountDeducted)
	}
	assert.True(t, total.Equal(dec("150")))
}

func TestApplyDiscountChain_RoundsEachStep(t *testing.T) {
	got := ApplyDiscountChain(dec("150"), decimal.Zero, []discountrule.Rule{
		rule(1, "ODD", "33.33", 1, "ALL"),
	}, discountrule.Subject{TransportType: "BUS"})

	require.Len(t, got.Applied, 1)
	assert.Equal(t, "50.00", got.Applied[0].AmountDeducted.StringFixed(2))
	assert.Equal(t, "100.00", got.Amount.StringFixed(2))
}

func TestApplyDiscountChain_ParsesUnresolvedConditions(t *testing.T) {
	terOnly := discountrule.Rule{ID: 1, RuleType: "TER_ONLY", Percentage: dec("40"), Priority: 1, Condition: "TER", Active: true}
	rules := []discountrule.Rule{terOnly}

	bus := ApplyDiscountChain(dec("300"), decimal.Zero, rules, discountrule.Subject{TransportType: "BUS"})
	assert.Empty(t, bus.Applied)
	assert.Equal(t, "300.00", bus.Amount.StringFixed(2))

	ter := ApplyDiscountChain(dec("300"), decimal.Zero, rules, discountrule.Subject{TransportType: "TER"})
	require.Len(t, ter.Applied, 1)
	assert.Equal(t, "180.00", ter.Amount.StringFixed(2))
	assert.False(t, rules[0].Matcher.Resolved(), "caller's rules are left untouched")
}
