// README: Discount rule store backed by PostgreSQL.
package discountrule

import (
	"context"
	"errors"
	"time"

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

const selectColumns = `id, rule_type, percentage::text, priority, COALESCE(condition, ''), active, created_at, updated_at`

func (s *Store) Create(ctx context.Context, r *Rule) error {
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, `
		INSERT INTO discount_rules (rule_type, percentage, priority, condition, active, created_at, updated_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $6)
		RETURNING id, created_at, updated_at`,
		r.RuleType, r.Percentage.StringFixed(2), r.Priority, r.Condition, r.Active, now,
	)
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	r.Resolve()
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Rule, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM discount_rules WHERE id = $1`, id)
	r, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) List(ctx context.Context) ([]Rule, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM discount_rules ORDER BY priority ASC, id ASC`)
}

// ListActive returns active rules in evaluation order (priority, then insertion order).
func (s *Store) ListActive(ctx context.Context) ([]Rule, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM discount_rules WHERE active = TRUE ORDER BY priority ASC, id ASC`)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]Rule, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule
	var pct string
	if err := row.Scan(&r.ID, &r.RuleType, &pct, &r.Priority, &r.Condition, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(pct)
	if err != nil {
		return nil, err
	}
	r.Percentage = d
	r.Resolve()
	return &r, nil
}
