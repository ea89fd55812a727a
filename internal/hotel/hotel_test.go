package hotel

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresServiceRejectsBadIdentifier(t *testing.T) {
	_, err := NewPostgresService(nil, "hotels; DROP TABLE x")
	require.Error(t, err)
}

func TestListActiveReturnsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc, err := NewPostgresService(sqlx.NewDb(db, "postgres"), "hotels")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "name", "url"}).
		AddRow("hotel-1", "Example Hotel", "https://hotel.example.com/")
	mock.ExpectQuery(`SELECT id, name, url FROM hotels WHERE active = TRUE`).WillReturnRows(rows)

	hotels, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	require.Equal(t, "hotel-1", hotels[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
