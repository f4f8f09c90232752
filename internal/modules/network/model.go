// README: Transit network reference data (lines, fare sections, zones) managed by admins.
package network

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransportLine struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	TransportType string    `json:"transportType"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FareSection is one priced segment of a line; SectionOrder is unique per line.
type FareSection struct {
	ID             int64           `json:"id"`
	LineID         int64           `json:"lineId"`
	SectionOrder   int             `json:"sectionOrder"`
	PriceIncrement decimal.Decimal `json:"priceIncrement"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type Zone struct {
	ID         int64     `json:"id"`
	ZoneNumber int       `json:"zoneNumber"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
