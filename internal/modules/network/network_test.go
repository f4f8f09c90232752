// README: Network admin service tests (validation + store error mapping).
package network

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

func TestService_CreateLine(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     CreateLineCommand
		wantErr bool
	}{
		{"valid bus", CreateLineCommand{Code: "L1", Name: "Line 1", TransportType: "bus"}, false},
		{"missing code", CreateLineCommand{Name: "Line 2", TransportType: "BUS"}, true},
		{"unknown type", CreateLineCommand{Code: "F1", Name: "Ferry", TransportType: "FERRY"}, true},
		{"duplicate code", CreateLineCommand{Code: "L1", Name: "Again", TransportType: "TER"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := svc.CreateLine(ctx, tt.cmd)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, l.ID)
			assert.Equal(t, "BUS", l.TransportType)
		})
	}
}

func TestService_Sections(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	line, err := svc.CreateLine(ctx, CreateLineCommand{Code: "T1", Name: "Coastal", TransportType: "TER"})
	require.NoError(t, err)

	_, err = svc.CreateSection(ctx, CreateSectionCommand{LineID: line.ID, SectionOrder: 2, PriceIncrement: decimal.RequireFromString("500")})
	require.NoError(t, err)
	_, err = svc.CreateSection(ctx, CreateSectionCommand{LineID: line.ID, SectionOrder: 1, PriceIncrement: decimal.RequireFromString("499.999")})
	require.NoError(t, err)

	_, err = svc.CreateSection(ctx, CreateSectionCommand{LineID: line.ID, SectionOrder: 3, PriceIncrement: decimal.RequireFromString("-1")})
	assert.True(t, ierr.IsValidation(err))

	_, err = svc.CreateSection(ctx, CreateSectionCommand{LineID: 999, SectionOrder: 1})
	assert.True(t, ierr.IsNotFound(err))

	sections, err := svc.ListSections(ctx, line.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, 1, sections[0].SectionOrder)
	assert.Equal(t, "500.00", sections[0].PriceIncrement.StringFixed(2))
}

func TestService_Zones(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateZone(ctx, CreateZoneCommand{ZoneNumber: 2})
	require.NoError(t, err)
	_, err = svc.CreateZone(ctx, CreateZoneCommand{ZoneNumber: 1})
	require.NoError(t, err)

	_, err = svc.CreateZone(ctx, CreateZoneCommand{ZoneNumber: 0})
	assert.True(t, ierr.IsValidation(err))
	_, err = svc.CreateZone(ctx, CreateZoneCommand{ZoneNumber: 2})
	assert.True(t, ierr.IsValidation(err))

	zones, err := svc.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, 1, zones[0].ZoneNumber)
}

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	lines    []TransportLine
	sections []FareSection
	zones    []Zone
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{}
}

func (m *memoryRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryRepo) CreateLine(_ context.Context, l *TransportLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.lines {
		if existing.Code == l.Code {
			return ErrDuplicate
		}
	}
	l.ID = m.id()
	m.lines = append(m.lines, *l)
	return nil
}

func (m *memoryRepo) ListLines(_ context.Context) ([]TransportLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TransportLine(nil), m.lines...), nil
}

func (m *memoryRepo) CreateSection(_ context.Context, f *FareSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, l := range m.lines {
		if l.ID == f.LineID {
			found = true
		}
	}
	if !found {
		return ErrLineNotFound
	}
	f.ID = m.id()
	m.sections = append(m.sections, *f)
	return nil
}

func (m *memoryRepo) ListSections(_ context.Context, lineID int64) ([]FareSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FareSection
	for _, f := range m.sections {
		if lineID == 0 || f.LineID == lineID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionOrder < out[j].SectionOrder })
	return out, nil
}

func (m *memoryRepo) CreateZone(_ context.Context, z *Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.zones {
		if existing.ZoneNumber == z.ZoneNumber {
			return ErrDuplicate
		}
	}
	z.ID = m.id()
	m.zones = append(m.zones, *z)
	return nil
}

func (m *memoryRepo) ListZones(_ context.Context) ([]Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Zone(nil), m.zones...)
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneNumber < out[j].ZoneNumber })
	return out, nil
}
