// README: Pricing audit store backed by PostgreSQL (append-only pricing_results).
package pricing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, r *PricingResult) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_results (
			id, trip_id, user_id, transport_type,
			base_price, discount_applied, final_amount,
			applied_discounts, computed_at
		) VALUES (
			$1, $2, $3, $4,
			$5::numeric, $6::numeric, $7::numeric,
			$8::jsonb, $9
		)`,
		r.ID.String(), r.TripID, r.UserID, r.TransportType,
		r.BasePrice.StringFixed(2), r.DiscountApplied.StringFixed(2), r.FinalAmount.StringFixed(2),
		r.AppliedDiscounts, r.ComputedAt,
	)
	return err
}

const resultColumns = `
	id::text, trip_id, user_id, transport_type,
	base_price::text, discount_applied::text, final_amount::text,
	applied_discounts::text, computed_at`

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*PricingResult, error) {
	row := s.db.QueryRow(ctx, `SELECT `+resultColumns+` FROM pricing_results WHERE id = $1`, id.String())
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return r, err
}

func (s *Store) ListByTrip(ctx context.Context, tripID int64) ([]PricingResult, error) {
	rows, err := s.db.Query(ctx, `SELECT `+resultColumns+` FROM pricing_results WHERE trip_id = $1 ORDER BY computed_at ASC`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricingResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanResult(row pgx.Row) (*PricingResult, error) {
	var (
		r                 PricingResult
		id                string
		base, disc, final string
		appliedDiscounts  sql.NullString
	)
	if err := row.Scan(&id, &r.TripID, &r.UserID, &r.TransportType, &base, &disc, &final, &appliedDiscounts, &r.ComputedAt); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if r.BasePrice, err = decimal.NewFromString(base); err != nil {
		return nil, err
	}
	if r.DiscountApplied, err = decimal.NewFromString(disc); err != nil {
		return nil, err
	}
	if r.FinalAmount, err = decimal.NewFromString(final); err != nil {
		return nil, err
	}
	if appliedDiscounts.Valid {
		v := appliedDiscounts.String
		r.AppliedDiscounts = &v
	}
	return &r, nil
}
