package loginattempts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestRecord(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+login_attempts\s*\(email,\s*ip,\s*ok,\s*created_at\)`).
		WithArgs("a@example.com", "1.2.3.4", false, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record(context.Background(), "a@example.com", "1.2.3.4", false, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+login_attempts`).WillReturnError(errors.New("db down"))

	err := repo.Record(context.Background(), "a@example.com", "1.2.3.4", true, time.Now())
	require.ErrorContains(t, err, "db error: db down")
}

func TestCountFailures(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Now().Add(-10 * time.Minute)

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+login_attempts\s+WHERE\s+email\s*=\s*\$1\s+AND\s+ok\s*=\s*FALSE\s+AND\s+created_at\s*>=\s*\$2$`).
		WithArgs("a@example.com", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+login_attempts\s+WHERE\s+ip\s*=\s*\$1\s+AND\s+ok\s*=\s*FALSE\s+AND\s+created_at\s*>=\s*\$2$`).
		WithArgs("1.2.3.4", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	byEmail, err := repo.CountFailuresByEmail(context.Background(), "a@example.com", since)
	require.NoError(t, err)
	assert.Equal(t, 8, byEmail)

	byIP, err := repo.CountFailuresByIP(context.Background(), "1.2.3.4", since)
	require.NoError(t, err)
	assert.Equal(t, 3, byIP)
}

func TestCountFailures_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+login_attempts`).WillReturnError(errors.New("boom"))

	_, err := repo.CountFailuresByIP(context.Background(), "1.2.3.4", time.Now())
	require.ErrorContains(t, err, "db error: boom")
}
