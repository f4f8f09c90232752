// README: Condition matcher and admin service tests (in-memory repository).
package discountrule

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "mobility-pricing/internal/errors"
)

func TestParseCondition(t *testing.T) {
	cases := []struct {
		raw  string
		want Matcher
	}{
		{"", Matcher{Kind: MatchAll}},
		{"ALL", Matcher{Kind: MatchAll}},
		{"  all ", Matcher{Kind: MatchAll}},
		{"BUS", Matcher{Kind: MatchTransportType, Value: "BUS"}},
		{"bus,ter", Matcher{Kind: MatchTransportType, Value: "BUS,TER"}},
		{"TRANSPORT:BRT", Matcher{Kind: MatchTransportType, Value: "BRT"}},
		{"PASS:MONTHLY", Matcher{Kind: MatchSubscription, Value: "MONTHLY"}},
		{"subscription:weekly", Matcher{Kind: MatchSubscription, Value: "WEEKLY"}},
		{"PASS:", Matcher{Kind: MatchSubscription, Value: ""}},
	}
	for _, tc := range cases {
		got := ParseCondition(tc.raw)
		if got != tc.want {
			t.Errorf("ParseCondition(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestMatcher_ZeroValueMatchesNothing(t *testing.T) {
	var m Matcher
	assert.False(t, m.Resolved())
	assert.False(t, m.Matches(Subject{TransportType: "BUS"}))

	r := Rule{Condition: "TER"}
	r.EnsureResolved()
	assert.Equal(t, Matcher{Kind: MatchTransportType, Value: "TER"}, r.Matcher)
}

func TestMatcher_Matches(t *testing.T) {
	bus := Subject{TransportType: "BUS"}
	ter := Subject{TransportType: "ter"}
	monthly := Subject{TransportType: "BRT", HasActivePass: true, PassType: "Monthly"}
	lapsed := Subject{TransportType: "BRT", HasActivePass: false, PassType: "MONTHLY"}
	noType := Subject{}

	cases := []struct {
		name    string
		cond    string
		subject Subject
		want    bool
	}{
		{"all matches anything", "ALL", noType, true},
		{"empty matches anything", "", bus, true},
		{"exact transport", "BUS", bus, true},
		{"transport list", "BUS,TER", ter, true},
		{"transport mismatch", "BRT", bus, false},
		{"empty transport never matches", "BUS", noType, false},
		{"pass type", "PASS:MONTHLY", monthly, true},
		{"pass list", "PASS:WEEKLY|MONTHLY", monthly, true},
		{"pass mismatch", "PASS:WEEKLY", monthly, false},
		{"inactive pass", "PASS:MONTHLY", lapsed, false},
		{"any active pass", "PASS:", monthly, true},
		{"any active pass without one", "PASS:", bus, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCondition(tc.cond).Matches(tc.subject))
		})
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommand{Percentage: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = svc.Create(ctx, CreateCommand{RuleType: "LOYALTY", Percentage: decimal.NewFromInt(101)})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = svc.Create(ctx, CreateCommand{RuleType: "LOYALTY", Percentage: decimal.NewFromInt(-1)})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = svc.Create(ctx, CreateCommand{RuleType: "LOYALTY", Percentage: decimal.NewFromInt(5), Priority: -2})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestService_CreateListActiveDelete(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	inactive := false

	loyalty, err := svc.Create(ctx, CreateCommand{RuleType: "loyalty", Percentage: decimal.NewFromInt(10), Priority: 3, Condition: "ALL"})
	require.NoError(t, err)
	assert.Equal(t, TypeLoyalty, loyalty.RuleType)
	assert.True(t, loyalty.Active)
	assert.Equal(t, MatchAll, loyalty.Matcher.Kind)

	_, err = svc.Create(ctx, CreateCommand{RuleType: "OFFPEAK", Percentage: decimal.NewFromInt(20), Priority: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCommand{RuleType: "OFFPEAK", Percentage: decimal.NewFromInt(50), Priority: 1, Active: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := svc.ActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, TypeOffPeak, active[0].RuleType)
	assert.Equal(t, TypeLoyalty, active[1].RuleType)

	require.NoError(t, svc.Delete(ctx, loyalty.ID))
	err = svc.Delete(ctx, loyalty.ID)
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

// memoryRepo is an in-memory Repository for tests.
type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rules  map[int64]Rule
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rules: map[int64]Rule{}}
}

func (m *memoryRepo) Create(_ context.Context, r *Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.Resolve()
	m.rules[r.ID] = *r
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memoryRepo) List(_ context.Context) ([]Rule, error) {
	return m.sorted(func(Rule) bool { return true }), nil
}

func (m *memoryRepo) ListActive(_ context.Context) ([]Rule, error) {
	return m.sorted(func(r Rule) bool { return r.Active }), nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *memoryRepo) sorted(keep func(Rule) bool) []Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Rule
	for _, r := range m.rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}
