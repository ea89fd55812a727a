// Package hotel defines the hotel directory collaborator — list_active()
// and the minimal Hotel record it returns — plus a Postgres-backed
// adapter so cmd/hotelcorpus has something concrete to drive end to end.
package hotel

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
)

// Hotel is one active hotel: an opaque id, a human-readable name
// label, and a seed URL.
type Hotel struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	URL  string `db:"url"`
}

// Service is the hotel directory: the driver loop's source of truth
// for which hotels to run this pass.
type Service interface {
	ListActive(ctx context.Context) ([]Hotel, error)
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresService is the default Service backed by a simple hotels
// table.
type PostgresService struct {
	db    *sqlx.DB
	table string
}

// NewPostgresService constructs a PostgresService bound to table
// (typically "hotels").
func NewPostgresService(db *sqlx.DB, table string) (*PostgresService, error) {
	if !identifierRe.MatchString(table) {
		return nil, fmt.Errorf("hotel: invalid table identifier %q", table)
	}
	return &PostgresService{db: db, table: table}, nil
}

// EnsureSchema creates the hotels table if it does not already exist.
func (s *PostgresService) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	url    TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE
)`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// ListActive returns every hotel currently flagged active.
func (s *PostgresService) ListActive(ctx context.Context) ([]Hotel, error) {
	query := fmt.Sprintf(`SELECT id, name, url FROM %s WHERE active = TRUE ORDER BY id`, s.table)
	var hotels []Hotel
	if err := s.db.SelectContext(ctx, &hotels, query); err != nil {
		return nil, err
	}
	return hotels, nil
}
