package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/usercommon/hotelcorpus/internal/schema"
)

// MarketDataStore is the Market-Data Record store.
type MarketDataStore struct {
	db    *sqlx.DB
	table string
}

// NewMarketDataStore constructs a MarketDataStore bound to the given
// table name (MARKET_DATA_TABLE, default "market_data").
func NewMarketDataStore(db *sqlx.DB, table string) (*MarketDataStore, error) {
	if !validIdentifier(table) {
		return nil, fmt.Errorf("store: invalid market data table identifier %q", table)
	}
	return &MarketDataStore{db: db, table: table}, nil
}

// EnsureSchema creates the Market-Data table: hotel_id plus one nullable
// text column per category, plus other_structured.
func (s *MarketDataStore) EnsureSchema(ctx context.Context) error {
	var cols strings.Builder
	for _, c := range schema.Categories {
		fmt.Fprintf(&cols, "\t%s TEXT,\n", c.Name)
	}
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	hotel_id TEXT PRIMARY KEY,
%s	other_structured TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table, cols.String())
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Record is the Market-Data Record: one nullable string per category plus
// the derived other_structured JSON blob.
type Record struct {
	HotelID         string
	Fields          map[string]string // category name -> value, only non-NULL, non-empty columns
	OtherStructured string            // empty string means absent
}

// Get loads the existing Market-Data Record for hotelID, or (nil, false)
// if none has been consolidated yet.
func (s *MarketDataStore) Get(ctx context.Context, hotelID string) (*Record, bool, error) {
	names := schema.Names()
	query := fmt.Sprintf(`SELECT %s, other_structured FROM %s WHERE hotel_id = $1`,
		strings.Join(names, ", "), s.table)

	dest := make([]interface{}, len(names)+1)
	values := make([]sql.NullString, len(names)+1)
	for i := range values {
		dest[i] = &values[i]
	}

	row := s.db.QueryRowContext(ctx, query, hotelID)
	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	rec := &Record{HotelID: hotelID, Fields: make(map[string]string)}
	for i, name := range names {
		if values[i].Valid && values[i].String != "" {
			rec.Fields[name] = values[i].String
		}
	}
	if values[len(names)].Valid {
		rec.OtherStructured = values[len(names)].String
	}
	return rec, true, nil
}

// Upsert writes only the given fields (category name -> merged text) plus
// an optional other_structured JSON string, creating the row if it
// doesn't exist yet. At least one of fields or otherStructured must be
// given; a call with neither returns an error (callers skip that case
// via the Record Writer's no-op path).
func (s *MarketDataStore) Upsert(ctx context.Context, hotelID string, fields map[string]string, otherStructured *string) error {
	if len(fields) == 0 && otherStructured == nil {
		return fmt.Errorf("store: upsert called with no changed columns")
	}

	cols := make([]string, 0, len(fields)+2)
	placeholders := make([]string, 0, len(fields)+2)
	args := make([]interface{}, 0, len(fields)+2)
	updates := make([]string, 0, len(fields)+1)

	// hotel_id is always $1
	args = append(args, hotelID)
	cols = append(cols, "hotel_id")
	placeholders = append(placeholders, "$1")

	// deterministic column order for stable SQL/log output across runs
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !schema.IsValidColumn(name) {
			return fmt.Errorf("store: %q is not in the category schema", name)
		}
		args = append(args, fields[name])
		cols = append(cols, name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
	}

	if otherStructured != nil {
		args = append(args, *otherStructured)
		cols = append(cols, schema.OtherStructuredColumn)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", schema.OtherStructuredColumn, schema.OtherStructuredColumn))
	}

	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(`
INSERT INTO %s (%s, updated_at)
VALUES (%s, now())
ON CONFLICT (hotel_id) DO UPDATE SET %s`,
		s.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
