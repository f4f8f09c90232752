// README: Pricing handlers: synchronous calculation, audit lookup and publish-only retry.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ierr "mobility-pricing/internal/errors"
	"mobility-pricing/internal/modules/pricing"
)

type PricingService interface {
	Calculate(ctx context.Context, evt pricing.TripCompletedEvent) (*pricing.Quote, error)
	GetResult(ctx context.Context, id uuid.UUID) (*pricing.PricingResult, error)
	ListResultsByTrip(ctx context.Context, tripID int64) ([]pricing.PricingResult, error)
	Republish(ctx context.Context, resultID uuid.UUID) error
}

type PricingHandler struct {
	pricing PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type publishFailedResponse struct {
	errorResponse
	Quote *pricing.Quote `json:"quote"`
}

// Calculate prices a trip on the request path. The body is a TripCompletedEvent.
func (h *PricingHandler) Calculate(c *gin.Context) {
	var evt pricing.TripCompletedEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := evt.Validate(); err != nil {
		writeServiceError(c, err)
		return
	}

	quote, err := h.pricing.Calculate(c.Request.Context(), evt)
	if err != nil {
		if ierr.Is(err, pricing.ErrPublishFailed) && quote != nil {
			_ = c.Error(err)
			writeJSON(c, http.StatusBadGateway, publishFailedResponse{
				errorResponse: errorResponse{Error: "trip priced but event not published", Code: http.StatusBadGateway},
				Quote:         quote,
			})
			return
		}
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, quote)
}

type resultResponse struct {
	ID               uuid.UUID `json:"id"`
	TripID           int64     `json:"tripId"`
	UserID           string    `json:"userId"`
	TransportType    string    `json:"transportType"`
	BasePrice        string    `json:"basePrice"`
	DiscountApplied  string    `json:"discountApplied"`
	FinalAmount      string    `json:"finalAmount"`
	AppliedDiscounts any       `json:"appliedDiscounts"`
	ComputedAt       string    `json:"computedAt"`
}

func toResultResponse(r pricing.PricingResult) resultResponse {
	var applied any
	if r.AppliedDiscounts != nil {
		applied = json.RawMessage(*r.AppliedDiscounts)
	}
	return resultResponse{
		ID:               r.ID,
		TripID:           r.TripID,
		UserID:           r.UserID,
		TransportType:    r.TransportType,
		BasePrice:        r.BasePrice.StringFixed(2),
		DiscountApplied:  r.DiscountApplied.StringFixed(2),
		FinalAmount:      r.FinalAmount.StringFixed(2),
		AppliedDiscounts: applied,
		ComputedAt:       r.ComputedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (h *PricingHandler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid result id")
		return
	}
	result, err := h.pricing.GetResult(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toResultResponse(*result))
}

func (h *PricingHandler) ListByTrip(c *gin.Context) {
	tripID, ok := paramInt64(c, "tripId")
	if !ok {
		return
	}
	results, err := h.pricing.ListResultsByTrip(c.Request.Context(), tripID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]resultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toResultResponse(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"tripId": tripID, "results": out})
}

func (h *PricingHandler) Republish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid result id")
		return
	}
	if err := h.pricing.Republish(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, gin.H{"resultId": id, "status": "republished"})
}
