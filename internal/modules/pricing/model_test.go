// README: Trip event admission tests shared by the HTTP and queue paths.
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ierr "mobility-pricing/internal/errors"
)

func TestTripCompletedEvent_Validate(t *testing.T) {
	cases := []struct {
		name string
		evt  TripCompletedEvent
		ok   bool
	}{
		{"complete", TripCompletedEvent{TripID: 7, UserID: "u-7", TransportType: "BUS"}, true},
		{"unknown transport is admitted", TripCompletedEvent{TripID: 7, UserID: "u-7", TransportType: "TRAM"}, true},
		{"missing trip", TripCompletedEvent{UserID: "u-7"}, false},
		{"negative trip", TripCompletedEvent{TripID: -1, UserID: "u-7"}, false},
		{"empty user", TripCompletedEvent{TripID: 7, UserID: ""}, false},
		{"blank user", TripCompletedEvent{TripID: 7, UserID: "   "}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.evt.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, ierr.IsValidation(err))
			assert.Equal(t, "tripId and userId are required", ierr.Hint(err))
		})
	}
}
