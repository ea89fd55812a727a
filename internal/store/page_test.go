package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockPageStore(t *testing.T) (*PageStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewPageStore(sqlx.NewDb(db, "postgres"), "hotel_page_data")
	require.NoError(t, err)
	return s, mock
}

func TestNewPageStoreRejectsBadIdentifier(t *testing.T) {
	_, err := NewPageStore(nil, "hotel_page_data; DROP TABLE x")
	require.Error(t, err)
}

func TestPageStoreUpsertInsertsWhenMissing(t *testing.T) {
	s, mock := newMockPageStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM hotel_page_data WHERE hotel_id = \$1 AND page_url = \$2`).
		WithArgs("hotel-1", "https://example.com/").
		WillReturnRows(sqlmock.NewRows(nil))

	mock.ExpectExec(`INSERT INTO hotel_page_data`).
		WithArgs("hotel-1", "https://example.com/", "<html></html>", "<html></html>", "Hello", "deadbeef", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Upsert(ctx, PageWrite{
		HotelID:       "hotel-1",
		PageURL:       "https://example.com/",
		RawHTML:       "<html></html>",
		CanonicalHTML: "<html></html>",
		Markdown:      "Hello",
		Checksum:      "deadbeef",
		Depth:         0,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPageStoreListDirtyUsesNullSafeComparison(t *testing.T) {
	s, mock := newMockPageStore(t)
	ctx := context.Background()

	cols := []string{
		"hotel_id", "page_url", "raw_html", "canonical_html", "markdown", "markdown_prev",
		"checksum", "llm_input_checksum", "llm_output", "depth", "active",
		"is_checksum_updated", "created_at", "updated_at", "llm_updated",
	}
	mock.ExpectQuery(`SELECT \* FROM hotel_page_data(?s).*llm_input_checksum IS DISTINCT FROM checksum`).
		WithArgs("hotel-1").
		WillReturnRows(sqlmock.NewRows(cols))

	pages, err := s.ListDirty(ctx, "hotel-1")
	require.NoError(t, err)
	require.Empty(t, pages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPageStoreMarkActiveSetHandlesEmptySavedSet(t *testing.T) {
	s, mock := newMockPageStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE hotel_page_data SET active = FALSE`).
		WithArgs("hotel-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.MarkActiveSet(ctx, "hotel-1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
