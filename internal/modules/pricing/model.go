// README: Pricing inputs (trip event, user summary), breakdown entries, quote, audit record and outbound event.
package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ierr "mobility-pricing/internal/errors"
	"mobility-pricing/internal/types"
)

const (
	TransportBus = "BUS"
	TransportTER = "TER"
	TransportBRT = "BRT"
)

// TripCompletedEvent is emitted by trip management once per finished trip.
type TripCompletedEvent struct {
	TripID           int64           `json:"tripId"`
	UserID           string          `json:"userId"`
	TransportType    string          `json:"transportType"`
	NumberOfSections *int            `json:"numberOfSections,omitempty"`
	StartZone        *int            `json:"startZone,omitempty"`
	EndZone          *int            `json:"endZone,omitempty"`
	StartTime        types.Timestamp `json:"startTime"`
	EndTime          types.Timestamp `json:"endTime"`
}

// Validate is the admission check shared by the HTTP and queue entry points.
func (e TripCompletedEvent) Validate() error {
	if e.TripID <= 0 || strings.TrimSpace(e.UserID) == "" {
		return ierr.NewError("trip completed event without identifiers").
			WithHint("tripId and userId are required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UserMobilitySummary is the fixed-point view of the pass service summary.
type UserMobilitySummary struct {
	HasActivePass bool
	PassType      string
	DiscountRate  decimal.Decimal
	DailyCap      decimal.Decimal
	CurrentSpent  decimal.Decimal
	// Fallback is set when the pass service could not be reached.
	Fallback bool
}

// AppliedDiscount is one deduction step, in application order.
type AppliedDiscount struct {
	RuleType       string          `json:"ruleType"`
	Percentage     decimal.Decimal `json:"percentage"`
	AmountDeducted decimal.Decimal `json:"amountDeducted"`
}

// Quote is what Calculate returns to HTTP and queue callers.
type Quote struct {
	ResultID         uuid.UUID         `json:"resultId"`
	BasePrice        decimal.Decimal   `json:"basePrice"`
	DiscountApplied  decimal.Decimal   `json:"discountApplied"`
	FinalPrice       decimal.Decimal   `json:"finalPrice"`
	CapReached       bool              `json:"capReached"`
	AppliedDiscounts []AppliedDiscount `json:"appliedDiscounts"`
}

// PricingResult is the audit record written once per run.
type PricingResult struct {
	ID              uuid.UUID
	TripID          int64
	UserID          string
	TransportType   string
	BasePrice       decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalAmount     decimal.Decimal
	// AppliedDiscounts holds the JSON encoded breakdown, nil when encoding failed.
	AppliedDiscounts *string
	ComputedAt       time.Time
}

// TripPricedEvent is published on the outbound channel, keyed by trip id.
type TripPricedEvent struct {
	TripID           int64             `json:"tripId"`
	UserID           string            `json:"userId"`
	BasePrice        decimal.Decimal   `json:"basePrice"`
	AppliedDiscounts []AppliedDiscount `json:"appliedDiscounts"`
	FinalAmount      decimal.Decimal   `json:"finalAmount"`
}
