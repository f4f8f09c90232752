// README: Admin service for transit network reference data.
package network

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	ierr "mobility-pricing/internal/errors"
)

var (
	ErrDuplicate    = errors.New("already exists")
	ErrLineNotFound = errors.New("transport line not found")
)

type Repository interface {
	CreateLine(ctx context.Context, l *TransportLine) error
	ListLines(ctx context.Context) ([]TransportLine, error)
	CreateSection(ctx context.Context, f *FareSection) error
	ListSections(ctx context.Context, lineID int64) ([]FareSection, error)
	CreateZone(ctx context.Context, z *Zone) error
	ListZones(ctx context.Context) ([]Zone, error)
}

type Service struct {
	store    Repository
	validate *validator.Validate
}

func NewService(store Repository) *Service {
	return &Service{store: store, validate: validator.New()}
}

type CreateLineCommand struct {
	Code          string `json:"code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=120"`
	TransportType string `json:"transportType" validate:"required,oneof=BUS TER BRT bus ter brt"`
}

type CreateSectionCommand struct {
	LineID         int64           `json:"lineId" validate:"required,gt=0"`
	SectionOrder   int             `json:"sectionOrder" validate:"gte=1"`
	PriceIncrement decimal.Decimal `json:"priceIncrement"`
}

type CreateZoneCommand struct {
	ZoneNumber int `json:"zoneNumber" validate:"gte=1"`
}

func (s *Service) CreateLine(ctx context.Context, cmd CreateLineCommand) (*TransportLine, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, ierr.WithError(err).
			WithHint("code and name are required, transportType must be BUS, TER or BRT").
			Mark(ierr.ErrValidation)
	}
	l := &TransportLine{
		Code:          strings.TrimSpace(cmd.Code),
		Name:          strings.TrimSpace(cmd.Name),
		TransportType: strings.ToUpper(cmd.TransportType),
	}
	if err := s.store.CreateLine(ctx, l); err != nil {
		return nil, storeError(err, "create transport line")
	}
	return l, nil
}

func (s *Service) ListLines(ctx context.Context) ([]TransportLine, error) {
	lines, err := s.store.ListLines(ctx)
	if err != nil {
		return nil, storeError(err, "list transport lines")
	}
	return lines, nil
}

func (s *Service) CreateSection(ctx context.Context, cmd CreateSectionCommand) (*FareSection, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, ierr.WithError(err).
			WithHint("lineId is required and sectionOrder starts at 1").
			Mark(ierr.ErrValidation)
	}
	if cmd.PriceIncrement.IsNegative() {
		return nil, ierr.NewError("negative price increment").
			WithHintf("priceIncrement must not be negative, got %s", cmd.PriceIncrement.String()).
			Mark(ierr.ErrValidation)
	}
	f := &FareSection{
		LineID:         cmd.LineID,
		SectionOrder:   cmd.SectionOrder,
		PriceIncrement: cmd.PriceIncrement.Round(2),
	}
	if err := s.store.CreateSection(ctx, f); err != nil {
		return nil, storeError(err, "create fare section")
	}
	return f, nil
}

func (s *Service) ListSections(ctx context.Context, lineID int64) ([]FareSection, error) {
	sections, err := s.store.ListSections(ctx, lineID)
	if err != nil {
		return nil, storeError(err, "list fare sections")
	}
	return sections, nil
}

func (s *Service) CreateZone(ctx context.Context, cmd CreateZoneCommand) (*Zone, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, ierr.WithError(err).WithHint("zoneNumber starts at 1").Mark(ierr.ErrValidation)
	}
	z := &Zone{ZoneNumber: cmd.ZoneNumber}
	if err := s.store.CreateZone(ctx, z); err != nil {
		return nil, storeError(err, "create zone")
	}
	return z, nil
}

func (s *Service) ListZones(ctx context.Context) ([]Zone, error) {
	zones, err := s.store.ListZones(ctx)
	if err != nil {
		return nil, storeError(err, "list zones")
	}
	return zones, nil
}

func storeError(err error, op string) error {
	switch {
	case errors.Is(err, ErrDuplicate):
		return ierr.WithError(err).WithHintf("%s: record already exists", op).Mark(ierr.ErrValidation)
	case errors.Is(err, ErrLineNotFound):
		return ierr.WithError(err).WithHint("referenced transport line does not exist").Mark(ierr.ErrNotFound)
	default:
		return ierr.WithError(err).WithMessage(op).Mark(ierr.ErrDatabase)
	}
}
