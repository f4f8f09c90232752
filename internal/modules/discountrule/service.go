// README: Discount rule admin service and the read-only active-rule source used by pricing.
package discountrule

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	ierr "mobility-pricing/internal/errors"
)

var (
	ErrNotFound   = errors.New("discount rule not found")
	ErrBadRequest = errors.New("bad request")
)

var maxPercentage = decimal.NewFromInt(100)

type Repository interface {
	Create(ctx context.Context, r *Rule) error
	Get(ctx context.Context, id int64) (*Rule, error)
	List(ctx context.Context) ([]Rule, error)
	ListActive(ctx context.Context) ([]Rule, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store    Repository
	validate *validator.Validate
}

func NewService(store Repository) *Service {
	return &Service{store: store, validate: validator.New()}
}

type CreateCommand struct {
	RuleType   string          `json:"ruleType" validate:"required,max=20"`
	Percentage decimal.Decimal `json:"percentage"`
	Priority   int             `json:"priority" validate:"gte=0"`
	Condition  string          `json:"condition" validate:"max=255"`
	Active     *bool           `json:"active"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Rule, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, ierr.WithError(err).
			WithHint("ruleType is required and priority must not be negative").
			Mark(ierr.ErrValidation)
	}
	if cmd.Percentage.IsNegative() || cmd.Percentage.GreaterThan(maxPercentage) {
		return nil, ierr.WithError(ErrBadRequest).
			WithHintf("percentage must be between 0 and 100, got %s", cmd.Percentage.String()).
			Mark(ierr.ErrValidation)
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}
	r := &Rule{
		RuleType:   strings.ToUpper(strings.TrimSpace(cmd.RuleType)),
		Percentage: cmd.Percentage.Round(2),
		Priority:   cmd.Priority,
		Condition:  strings.TrimSpace(cmd.Condition),
		Active:     active,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, ierr.WithError(err).WithMessage("create discount rule").Mark(ierr.ErrDatabase)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]Rule, error) {
	rules, err := s.store.List(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("list discount rules").Mark(ierr.ErrDatabase)
	}
	return rules, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ierr.WithError(err).WithHintf("discount rule %d does not exist", id).Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return ierr.WithError(err).WithMessage("delete discount rule").Mark(ierr.ErrDatabase)
	}
	return nil
}

// ActiveRules is the narrow read the pricing engine depends on.
func (s *Service) ActiveRules(ctx context.Context) ([]Rule, error) {
	rules, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("load active discount rules").Mark(ierr.ErrDependency)
	}
	return rules, nil
}
