package telemetry

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestRecordLaunch(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := models.LaunchRecord{
		BoardToken: "abc", PuckID: 19, PointerID: 1,
		DirectionX: 0, DirectionZ: -1, Speed: 0.4, Force: 1, Frame: 42, CreatedAt: at,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO launches")).
		WithArgs("abc", 19, 1, 0.0, -1.0, 0.4, 1.0, 42, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, RecordLaunch(db, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentLaunchesClampsLimit(t *testing.T) {
	db, mock := newMockDB(t)
	cols := []string{"id", "board_token", "puck_id", "pointer_id", "direction_x", "direction_z", "speed", "force", "frame", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM launches")).
		WithArgs("abc", 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "abc", 19, 1, 0.0, -1.0, 0.4, 1.0, 80, time.Now()).
			AddRow(1, "abc", 19, 1, 1.0, 0.0, 0.2, 0.5, 10, time.Now()))

	launches, err := RecentLaunches(db, "abc", 0)
	require.NoError(t, err)
	require.Len(t, launches, 2)
	assert.Equal(t, 80, launches[0].Frame)

	mock.ExpectQuery(regexp.QuoteMeta("FROM launches")).
		WithArgs("abc", 50).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = RecentLaunches(db, "abc", 10000)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
