// README: Base fare per transport mode (BUS and TER by section, BRT by zone).
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"mobility-pricing/internal/types"
)

const (
	busBase         = 150
	busPerSection   = 50
	terBase         = 500
	terPerSection   = 500
	brtSameZoneFare = 400
	brtCrossZone    = 500
)

// BaseFare never fails: unknown transport types price at zero.
func BaseFare(evt TripCompletedEvent) decimal.Decimal {
	sections := 0
	if evt.NumberOfSections != nil && *evt.NumberOfSections > 0 {
		sections = *evt.NumberOfSections
	}

	switch strings.ToUpper(strings.TrimSpace(evt.TransportType)) {
	case TransportBus:
		return types.MoneyFromInt(busBase + int64(sections)*busPerSection)
	case TransportTER:
		return types.MoneyFromInt(terBase + int64(sections)*terPerSection)
	case TransportBRT:
		if evt.StartZone != nil && evt.EndZone != nil && *evt.StartZone == *evt.EndZone {
			return types.MoneyFromInt(brtSameZoneFare)
		}
		return types.MoneyFromInt(brtCrossZone)
	default:
		return decimal.Zero
	}
}
