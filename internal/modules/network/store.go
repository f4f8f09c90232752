// README: Network store backed by PostgreSQL.
package network

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CreateLine(ctx context.Context, l *TransportLine) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
		INSERT INTO transport_lines (code, name, transport_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at`,
		l.Code, l.Name, l.TransportType, now,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	return translate(err)
}

func (s *Store) ListLines(ctx context.Context) ([]TransportLine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, code, name, transport_type, created_at, updated_at
		FROM transport_lines ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TransportLine, error) {
		var l TransportLine
		err := row.Scan(&l.ID, &l.Code, &l.Name, &l.TransportType, &l.CreatedAt, &l.UpdatedAt)
		return l, err
	})
}

func (s *Store) CreateSection(ctx context.Context, f *FareSection) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
		INSERT INTO fare_sections (line_id, section_order, price_increment, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $4)
		RETURNING id, created_at, updated_at`,
		f.LineID, f.SectionOrder, f.PriceIncrement.StringFixed(2), now,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return translate(err)
}

// ListSections returns sections of one line, or of every line when lineID is 0.
func (s *Store) ListSections(ctx context.Context, lineID int64) ([]FareSection, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, line_id, section_order, price_increment::text, created_at, updated_at
		FROM fare_sections
		WHERE $1::bigint = 0 OR line_id = $1::bigint
		ORDER BY line_id ASC, section_order ASC`, lineID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (FareSection, error) {
		var (
			f   FareSection
			inc string
		)
		if err := row.Scan(&f.ID, &f.LineID, &f.SectionOrder, &inc, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return f, err
		}
		d, err := decimal.NewFromString(inc)
		f.PriceIncrement = d
		return f, err
	})
}

func (s *Store) CreateZone(ctx context.Context, z *Zone) error {
	now := time.Now().UTC()
	err := s.db.QueryRow(ctx, `
		INSERT INTO zones (zone_number, created_at, updated_at)
		VALUES ($1, $2, $2)
		RETURNING id, created_at, updated_at`,
		z.ZoneNumber, now,
	).Scan(&z.ID, &z.CreatedAt, &z.UpdatedAt)
	return translate(err)
}

func (s *Store) ListZones(ctx context.Context) ([]Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, zone_number, created_at, updated_at
		FROM zones ORDER BY zone_number ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Zone, error) {
		var z Zone
		err := row.Scan(&z.ID, &z.ZoneNumber, &z.CreatedAt, &z.UpdatedAt)
		return z, err
	})
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrLineNotFound
		}
	}
	return err
}
