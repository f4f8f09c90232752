// README: Discount rule rows and the condition matcher resolved when rules are loaded.
package discountrule

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeSubscription  = "SUBSCRIPTION"
	TypeOffPeak       = "OFFPEAK"
	TypeLoyalty       = "LOYALTY"
	TypeDailyCap      = "DAILY_CAP"
	TypeDailyCapLimit = "DAILY_CAP_LIMIT"
)

type Rule struct {
	ID         int64           `json:"id"`
	RuleType   string          `json:"ruleType"`
	Percentage decimal.Decimal `json:"percentage"`
	// Priority 1 is applied first.
	Priority  int       `json:"priority"`
	Condition string    `json:"condition"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Matcher Matcher `json:"-"`
}

// IsSubscription reports whether the rule duplicates the live subscription discount.
func (r Rule) IsSubscription() bool {
	return strings.EqualFold(r.RuleType, TypeSubscription)
}

type MatchKind int

const (
	matchUnresolved MatchKind = iota
	MatchAll
	MatchTransportType
	MatchSubscription
)

func (k MatchKind) String() string {
	switch k {
	case matchUnresolved:
		return "unresolved"
	case MatchAll:
		return "all"
	case MatchTransportType:
		return "transport_type"
	case MatchSubscription:
		return "subscription"
	default:
		return "unknown"
	}
}

// Subject is what a condition is evaluated against: the trip plus the caller's pass.
type Subject struct {
	TransportType string
	HasActivePass bool
	PassType      string
}

// Matcher is the parsed form of Rule.Condition. The zero value is unresolved
// and matches nothing.
type Matcher struct {
	Kind  MatchKind
	Value string
}

func (m Matcher) Resolved() bool {
	return m.Kind != matchUnresolved
}

const (
	prefixTransport    = "TRANSPORT:"
	prefixPass         = "PASS:"
	prefixSubscription = "SUBSCRIPTION:"
)

// ParseCondition resolves a stored condition string.
//
//	""  / "ALL"              -> MatchAll
//	"PASS:x" / "SUBSCRIPTION:x" -> MatchSubscription(x)
//	"TRANSPORT:x" / anything -> MatchTransportType(x)
func ParseCondition(raw string) Matcher {
	cond := strings.TrimSpace(raw)
	upper := strings.ToUpper(cond)
	switch {
	case cond == "" || upper == "ALL":
		return Matcher{Kind: MatchAll}
	case strings.HasPrefix(upper, prefixPass):
		return Matcher{Kind: MatchSubscription, Value: strings.TrimSpace(upper[len(prefixPass):])}
	case strings.HasPrefix(upper, prefixSubscription):
		return Matcher{Kind: MatchSubscription, Value: strings.TrimSpace(upper[len(prefixSubscription):])}
	case strings.HasPrefix(upper, prefixTransport):
		return Matcher{Kind: MatchTransportType, Value: strings.TrimSpace(upper[len(prefixTransport):])}
	default:
		return Matcher{Kind: MatchTransportType, Value: upper}
	}
}

// Matches applies substring semantics: the condition text must contain the attribute.
// An empty attribute never matches a non-ALL condition.
func (m Matcher) Matches(s Subject) bool {
	switch m.Kind {
	case MatchAll:
		return true
	case MatchTransportType:
		tt := strings.ToUpper(strings.TrimSpace(s.TransportType))
		return tt != "" && strings.Contains(m.Value, tt)
	case MatchSubscription:
		if !s.HasActivePass {
			return false
		}
		if m.Value == "" {
			return true
		}
		pt := strings.ToUpper(strings.TrimSpace(s.PassType))
		return pt != "" && strings.Contains(m.Value, pt)
	default:
		return false
	}
}

// Resolve fills Matcher from Condition. Stores call it on every loaded row.
func (r *Rule) Resolve() {
	r.Matcher = ParseCondition(r.Condition)
}

// EnsureResolved parses Condition when the rule came from a source that did not.
func (r *Rule) EnsureResolved() {
	if !r.Matcher.Resolved() {
		r.Resolve()
	}
}
