// README: Pricing service orchestrates summary lookup, fare, discounts, cap, audit and publish.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ierr "mobility-pricing/internal/errors"
	"mobility-pricing/internal/logger"
	"mobility-pricing/internal/modules/discountrule"
	"mobility-pricing/internal/modules/usersummary"
	"mobility-pricing/internal/types"
)

var (
	ErrAuditFailed    = errors.New("pricing audit failed")
	ErrPublishFailed  = errors.New("trip priced event not published")
	ErrResultNotFound = errors.New("pricing result not found")
)

type SummaryProvider interface {
	GetSummary(ctx context.Context, userID string) (*usersummary.Summary, error)
}

type RuleSource interface {
	ActiveRules(ctx context.Context) ([]discountrule.Rule, error)
}

type AuditStore interface {
	Save(ctx context.Context, r *PricingResult) error
	Get(ctx context.Context, id uuid.UUID) (*PricingResult, error)
	ListByTrip(ctx context.Context, tripID int64) ([]PricingResult, error)
}

type EventPublisher interface {
	PublishTripPriced(ctx context.Context, evt TripPricedEvent) error
}

type Deps struct {
	Summaries       SummaryProvider
	Rules           RuleSource
	Audit           AuditStore
	Publisher       EventPublisher
	DefaultDailyCap decimal.Decimal
	Logger          *logger.Logger
}

type Service struct {
	summaries  SummaryProvider
	rules      RuleSource
	audit      AuditStore
	publisher  EventPublisher
	defaultCap decimal.Decimal
	log        *logger.Logger

	now    func() time.Time
	encode func(v any) ([]byte, error)
}

func NewService(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		summaries:  deps.Summaries,
		rules:      deps.Rules,
		audit:      deps.Audit,
		publisher:  deps.Publisher,
		defaultCap: types.RoundMoney(deps.DefaultDailyCap),
		log:        log,
		now:        time.Now,
		encode:     json.Marshal,
	}
}

// DefaultSummary is substituted whenever the pass service cannot answer.
func (s *Service) DefaultSummary() UserMobilitySummary {
	return UserMobilitySummary{
		DiscountRate: decimal.Zero,
		DailyCap:     s.defaultCap,
		CurrentSpent: decimal.Zero,
		Fallback:     true,
	}
}

// Calculate prices one completed trip. On ErrPublishFailed the returned quote is
// still valid and its audit record exists; only the notification is missing.
func (s *Service) Calculate(ctx context.Context, evt TripCompletedEvent) (*Quote, error) {
	log := s.log.With("trip_id", evt.TripID, "user_id", evt.UserID)
	log.Infow("calculating trip price", "transport_type", evt.TransportType)

	summary := s.fetchSummary(ctx, evt.UserID, log)

	base := BaseFare(evt)

	rules, err := s.rules.ActiveRules(ctx)
	if err != nil {
		log.Errorw("discount rules unavailable", "error", err)
		return nil, ierr.WithError(err).WithMessage("load discount rules").Mark(ierr.ErrDependency)
	}
	chain := ApplyDiscountChain(base, summary.DiscountRate, rules, discountrule.Subject{
		TransportType: evt.TransportType,
		HasActivePass: summary.HasActivePass,
		PassType:      summary.PassType,
	})

	capped := ApplyDailyCap(chain.Amount, summary.DailyCap, summary.CurrentSpent)
	applied := chain.Applied
	if capped.Entry != nil {
		applied = append(applied, *capped.Entry)
	}

	quote := &Quote{
		BasePrice:        base,
		DiscountApplied:  base.Sub(capped.Final),
		FinalPrice:       capped.Final,
		CapReached:       capped.CapReached,
		AppliedDiscounts: applied,
	}

	result := &PricingResult{
		ID:               uuid.New(),
		TripID:           evt.TripID,
		UserID:           evt.UserID,
		TransportType:    evt.TransportType,
		BasePrice:        quote.BasePrice,
		DiscountApplied:  quote.DiscountApplied,
		FinalAmount:      quote.FinalPrice,
		AppliedDiscounts: s.encodeDiscounts(applied, log),
		ComputedAt:       s.now().UTC(),
	}
	if err := s.audit.Save(ctx, result); err != nil {
		log.Errorw("pricing audit write failed", "error", err)
		return nil, auditError(err)
	}
	quote.ResultID = result.ID

	if err := s.publisher.PublishTripPriced(ctx, pricedEvent(result, applied)); err != nil {
		log.Errorw("trip priced publish failed", "result_id", result.ID, "error", err)
		return quote, publishError(err)
	}

	log.Infow("trip priced",
		"result_id", result.ID,
		"base_price", quote.BasePrice.StringFixed(2),
		"final_price", quote.FinalPrice.StringFixed(2),
		"cap_reached", quote.CapReached,
	)
	return quote, nil
}

// Republish sends the TripPricedEvent of an existing audit record again without
// re-running the calculation.
func (s *Service) Republish(ctx context.Context, resultID uuid.UUID) error {
	result, err := s.GetResult(ctx, resultID)
	if err != nil {
		return err
	}

	applied := []AppliedDiscount{}
	if result.AppliedDiscounts != nil {
		if err := json.Unmarshal([]byte(*result.AppliedDiscounts), &applied); err != nil {
			return ierr.WithError(err).WithMessage("decode stored applied discounts").Mark(ierr.ErrSerialization)
		}
	} else {
		s.log.Warnw("republishing without discount breakdown", "result_id", resultID)
	}

	if err := s.publisher.PublishTripPriced(ctx, pricedEvent(result, applied)); err != nil {
		return publishError(err)
	}
	s.log.Infow("trip priced event republished", "result_id", resultID, "trip_id", result.TripID)
	return nil
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*PricingResult, error) {
	result, err := s.audit.Get(ctx, id)
	if errors.Is(err, ErrResultNotFound) {
		return nil, ierr.WithError(err).WithHintf("pricing result %s does not exist", id).Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("load pricing result").Mark(ierr.ErrDatabase)
	}
	return result, nil
}

func (s *Service) ListResultsByTrip(ctx context.Context, tripID int64) ([]PricingResult, error) {
	results, err := s.audit.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("list pricing results").Mark(ierr.ErrDatabase)
	}
	return results, nil
}

func (s *Service) fetchSummary(ctx context.Context, userID string, log *logger.Logger) UserMobilitySummary {
	if s.summaries == nil || userID == "" {
		return s.DefaultSummary()
	}
	raw, err := s.summaries.GetSummary(ctx, userID)
	if err != nil || raw == nil {
		log.Warnw("user summary unavailable, using defaults", "error", err)
		return s.DefaultSummary()
	}
	return UserMobilitySummary{
		HasActivePass: raw.HasActivePass,
		PassType:      raw.PassType,
		DiscountRate:  decimal.Max(types.RateFromFloat(raw.ActiveDiscountRate), decimal.Zero),
		DailyCap:      types.NonNegative(types.MoneyFromFloat(raw.DailyCap)),
		CurrentSpent:  types.NonNegative(types.MoneyFromFloat(raw.CurrentSpent)),
	}
}

func (s *Service) encodeDiscounts(applied []AppliedDiscount, log *logger.Logger) *string {
	b, err := s.encode(applied)
	if err != nil {
		log.Errorw("applied discounts not serializable, auditing amounts only", "error", err)
		return nil
	}
	text := string(b)
	return &text
}

func pricedEvent(r *PricingResult, applied []AppliedDiscount) TripPricedEvent {
	return TripPricedEvent{
		TripID:           r.TripID,
		UserID:           r.UserID,
		BasePrice:        r.BasePrice,
		AppliedDiscounts: applied,
		FinalAmount:      r.FinalAmount,
	}
}

func auditError(err error) error {
	marked := ierr.WithError(err).WithMessage("persist pricing result").Mark(ErrAuditFailed)
	return ierr.WithError(marked).Mark(ierr.ErrDatabase)
}

func publishError(err error) error {
	marked := ierr.WithError(err).WithMessage("publish trip priced event").Mark(ErrPublishFailed)
	return ierr.WithError(marked).Mark(ierr.ErrPublish)
}
