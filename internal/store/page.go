// Package store persists Page Artifacts and Market-Data Records via
// sqlx/lib/pq: one row per crawled URL carrying its current
// markdown/HTML and previous markdown, and one row per hotel carrying its
// consolidated Market-Data fields.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// identifierRe guards table names read from the environment against
// accidental SQL injection; these are operator-controlled, not
// user-controlled, but the check costs nothing.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) bool {
	return identifierRe.MatchString(name)
}

// Page is the Page Artifact row: one crawled URL's current and
// previous rendered content.
type Page struct {
	HotelID           string         `db:"hotel_id"`
	PageURL           string         `db:"page_url"`
	RawHTML           string         `db:"raw_html"`
	CanonicalHTML     string         `db:"canonical_html"`
	Markdown          string         `db:"markdown"`
	MarkdownPrev      sql.NullString `db:"markdown_prev"`
	Checksum          string         `db:"checksum"`
	LLMInputChecksum  sql.NullString `db:"llm_input_checksum"`
	LLMOutput         sql.NullString `db:"llm_output"`
	Depth             int            `db:"depth"`
	Active            bool           `db:"active"`
	IsChecksumUpdated bool           `db:"is_checksum_updated"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	LLMUpdated        sql.NullTime   `db:"llm_updated"`
}

// PageWrite is the input to Upsert: everything the crawler produced for
// one URL in one crawl pass.
type PageWrite struct {
	HotelID       string
	PageURL       string
	RawHTML       string
	CanonicalHTML string
	Markdown      string
	Checksum      string
	Depth         int
}

// PageStore persists Page Artifacts and tracks which are still active.
type PageStore struct {
	db    *sqlx.DB
	table string
}

// NewPageStore constructs a PageStore bound to the given table name
// (HOTEL_PAGE_DATA_TABLE, default "hotel_page_data").
func NewPageStore(db *sqlx.DB, table string) (*PageStore, error) {
	if !validIdentifier(table) {
		return nil, fmt.Errorf("store: invalid page table identifier %q", table)
	}
	return &PageStore{db: db, table: table}, nil
}

// EnsureSchema creates the Page Artifact table if it does not already
// exist.
func (s *PageStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	hotel_id            TEXT NOT NULL,
	page_url            TEXT NOT NULL,
	raw_html            TEXT NOT NULL DEFAULT '',
	canonical_html      TEXT NOT NULL DEFAULT '',
	markdown            TEXT NOT NULL DEFAULT '',
	markdown_prev       TEXT,
	checksum            TEXT NOT NULL DEFAULT '',
	llm_input_checksum  TEXT,
	llm_output          TEXT,
	depth               INTEGER NOT NULL DEFAULT 0,
	active              BOOLEAN NOT NULL DEFAULT TRUE,
	is_checksum_updated BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	llm_updated         TIMESTAMPTZ,
	PRIMARY KEY (hotel_id, page_url)
)`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Upsert inserts a new Page Artifact, or updates one in place, rolling
// the previous markdown into markdown_prev and flipping
// is_checksum_updated when the checksum actually changed. The previous
// raw/canonical HTML is overwritten, not retained.
func (s *PageStore) Upsert(ctx context.Context, w PageWrite) error {
	existing, found, err := s.Get(ctx, w.HotelID, w.PageURL)
	if err != nil {
		return err
	}

	checksumChanged := found && existing.Checksum != w.Checksum

	if !found {
		query := fmt.Sprintf(`
INSERT INTO %s (hotel_id, page_url, raw_html, canonical_html, markdown, checksum, depth, active, is_checksum_updated, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, FALSE, now(), now())`, s.table)
		_, err := s.db.ExecContext(ctx, query, w.HotelID, w.PageURL, w.RawHTML, w.CanonicalHTML, w.Markdown, w.Checksum, w.Depth)
		return err
	}

	query := fmt.Sprintf(`
UPDATE %s SET
	raw_html = $3,
	canonical_html = $4,
	markdown = $5,
	markdown_prev = $6,
	checksum = $7,
	depth = $8,
	active = TRUE,
	is_checksum_updated = $9,
	updated_at = now()
WHERE hotel_id = $1 AND page_url = $2`, s.table)
	_, err = s.db.ExecContext(ctx, query,
		w.HotelID, w.PageURL, w.RawHTML, w.CanonicalHTML, w.Markdown,
		existing.Markdown, w.Checksum, w.Depth, checksumChanged,
	)
	return err
}

// Get fetches one Page Artifact, reporting (page, found, error).
func (s *PageStore) Get(ctx context.Context, hotelID, pageURL string) (Page, bool, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE hotel_id = $1 AND page_url = $2`, s.table)
	var p Page
	err := s.db.GetContext(ctx, &p, query, hotelID, pageURL)
	if err == sql.ErrNoRows {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, err
	}
	return p, true, nil
}

// MarkActiveSet deactivates every Page Artifact for hotelID whose URL
// isn't in savedURLs. An empty savedURLs still deactivates every
// existing row, so the active set always equals exactly the URLs
// successfully saved in the most recent crawl run. Callers must pass
// only URLs whose Upsert actually succeeded this run, not every URL
// that was merely visited.
func (s *PageStore) MarkActiveSet(ctx context.Context, hotelID string, savedURLs []string) error {
	if len(savedURLs) == 0 {
		query := fmt.Sprintf(`UPDATE %s SET active = FALSE, updated_at = now() WHERE hotel_id = $1 AND active = TRUE`, s.table)
		_, err := s.db.ExecContext(ctx, query, hotelID)
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET active = FALSE, updated_at = now() WHERE hotel_id = $1 AND active = TRUE AND NOT (page_url = ANY($2))`, s.table)
	_, err := s.db.ExecContext(ctx, query, hotelID, pq.Array(savedURLs))
	return err
}

// ListDirty returns every extraction-eligible Page Artifact for hotelID,
// using the NULL-safe comparison (`IS DISTINCT FROM`) rather than `!=`,
// since `NULL != x` is unknown, not true, in standard SQL.
func (s *PageStore) ListDirty(ctx context.Context, hotelID string) ([]Page, error) {
	query := fmt.Sprintf(`
SELECT * FROM %s
WHERE hotel_id = $1
  AND active = TRUE
  AND markdown <> ''
  AND llm_input_checksum IS DISTINCT FROM checksum
ORDER BY page_url`, s.table)
	var pages []Page
	if err := s.db.SelectContext(ctx, &pages, query, hotelID); err != nil {
		return nil, err
	}
	return pages, nil
}

// MarkExtracted records that the extractor successfully consumed a
// page's current checksum.
func (s *PageStore) MarkExtracted(ctx context.Context, hotelID, pageURL, checksum, llmOutputJSON string) error {
	query := fmt.Sprintf(`
UPDATE %s SET llm_input_checksum = $3, llm_output = $4, llm_updated = now()
WHERE hotel_id = $1 AND page_url = $2`, s.table)
	_, err := s.db.ExecContext(ctx, query, hotelID, pageURL, checksum, llmOutputJSON)
	return err
}

