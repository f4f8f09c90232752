// README: Base fare tests per transport type.
package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func TestBaseFare_SectionTariffs(t *testing.T) {
	for s := 0; s <= 20; s++ {
		bus := BaseFare(TripCompletedEvent{TransportType: "BUS", NumberOfSections: intPtr(s)})
		if want := decimal.NewFromInt(int64(150 + 50*s)); !bus.Equal(want) {
			t.Fatalf("BUS sections=%d: got %s want %s", s, bus, want)
		}
		ter := BaseFare(TripCompletedEvent{TransportType: "TER", NumberOfSections: intPtr(s)})
		if want := decimal.NewFromInt(int64(500 + 500*s)); !ter.Equal(want) {
			t.Fatalf("TER sections=%d: got %s want %s", s, ter, want)
		}
	}
}

func TestBaseFare(t *testing.T) {
	tests := []struct {
		name string
		evt  TripCompletedEvent
		want int64
	}{
		{"bus without sections", TripCompletedEvent{TransportType: "BUS"}, 150},
		{"bus negative sections clamp", TripCompletedEvent{TransportType: "BUS", NumberOfSections: intPtr(-3)}, 150},
		{"lowercase ter", TripCompletedEvent{TransportType: "ter", NumberOfSections: intPtr(2)}, 1500},
		{"brt same zone", TripCompletedEvent{TransportType: "BRT", StartZone: intPtr(2), EndZone: intPtr(2)}, 400},
		{"brt different zones", TripCompletedEvent{TransportType: "BRT", StartZone: intPtr(1), EndZone: intPtr(3)}, 500},
		{"brt missing end zone", TripCompletedEvent{TransportType: "BRT", StartZone: intPtr(1)}, 500},
		{"brt no zones", TripCompletedEvent{TransportType: "BRT"}, 500},
		{"unknown type", TripCompletedEvent{TransportType: "FERRY", NumberOfSections: intPtr(4)}, 0},
		{"empty type", TripCompletedEvent{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseFare(tt.evt)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Fatalf("BaseFare() = %s, want %d", got, tt.want)
			}
		})
	}
}
