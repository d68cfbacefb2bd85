package maintenance

import (
	"context"
	"database/sql"
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

var cols = []string{"maintenance_active", "maintenance_message", "updated_at"}

func TestGet_OK(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`^SELECT maintenance_active, maintenance_message, updated_at FROM app_config WHERE id = 1$`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(true, "upgrade", at))

	c, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, "upgrade", c.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NoRowIsInactive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM app_config`).WillReturnError(sql.ErrNoRows)

	c, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, c.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM app_config WHERE id = 1 FOR UPDATE$`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(false, "", time.Now()))

	_, err := repo.GetForUpdate(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForShare_SharesLock(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM app_config WHERE id = 1 FOR SHARE$`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(true, "upgrade", time.Now()))

	c, err := repo.GetForShare(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, "upgrade", c.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM app_config`).WillReturnError(errors.New("boom"))

	_, err := repo.Get(context.Background())
	require.ErrorContains(t, err, "db error")
}

func TestUpsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`(?s)^INSERT INTO app_config.*ON CONFLICT \(id\) DO UPDATE.*RETURNING`).
		WithArgs(true, "back soon", at).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(true, "back soon", at))

	c, err := repo.Upsert(context.Background(), true, "back soon", at)
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, "back soon", c.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO app_config`).WillReturnError(errors.New("boom"))

	_, err := repo.Upsert(context.Background(), false, "", time.Now())
	require.ErrorContains(t, err, "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}

var noticeCols = []string{"notice_active", "notice_text", "notice_updated_at"}

func TestGetNotice(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT notice_active, notice_text, notice_updated_at FROM app_config WHERE id = 1$`).
		WillReturnRows(sqlmock.NewRows(noticeCols).AddRow(true, "new channels", time.Now()))

	n, err := repo.GetNotice(context.Background())
	require.NoError(t, err)
	assert.True(t, n.Active)
	assert.Equal(t, "new channels", n.Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotice_NoRowIsInactive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM app_config`).WillReturnError(sql.ErrNoRows)

	n, err := repo.GetNotice(context.Background())
	require.NoError(t, err)
	assert.False(t, n.Active)
	assert.Empty(t, n.Text)
}

func TestSetNotice(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`INSERT INTO app_config \(id, notice_active, notice_text, notice_updated_at\)`).
		WithArgs(false, "", at).
		WillReturnRows(sqlmock.NewRows(noticeCols).AddRow(false, "", at))

	n, err := repo.SetNotice(context.Background(), false, "", at)
	require.NoError(t, err)
	assert.False(t, n.Active)
	assert.Equal(t, at, n.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetNotice_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO app_config`).WillReturnError(errors.New("boom"))

	_, err := repo.SetNotice(context.Background(), true, "x", time.Now())
	require.Error(t, err)
}
