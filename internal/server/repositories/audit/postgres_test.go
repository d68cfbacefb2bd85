package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
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

var cols = []string{"id", "actor_id", "actor_email", "action", "target_id", "target", "meta", "ip", "user_agent", "created_at"}

func TestAppend(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+audit_log.*RETURNING\s+id$`).
		WithArgs("adm-1", "admin@example.com", "USER_KICK",
			sql.NullString{String: "u-1", Valid: true}, sql.NullString{String: "user@example.com", Valid: true},
			`{"reason":"test"}`, sql.NullString{String: "10.0.0.1", Valid: true}, sql.NullString{}, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	rec := &models.AuditRecord{
		ActorID: "adm-1", ActorEmail: "admin@example.com", Action: models.ActionUserKick,
		TargetID: "u-1", Target: "user@example.com", Meta: []byte(`{"reason":"test"}`),
		IP: "10.0.0.1", CreatedAt: at,
	}
	require.NoError(t, repo.Append(context.Background(), rec))
	assert.Equal(t, int64(5), rec.ID)
}

func TestAppend_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+audit_log`).WillReturnError(errors.New("boom"))

	err := repo.Append(context.Background(), &models.AuditRecord{Action: models.ActionUserBlock})
	require.ErrorContains(t, err, "db error: boom")
}

func TestList_NoFilter(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+audit_log\s+ORDER\s+BY\s+created_at\s+DESC$`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), "adm", "admin@example.com", "USER_BLOCK", "u-1", "user@example.com", []byte(`{"blocked":true}`), "1.1.1.1", "curl", at).
			AddRow(int64(1), "adm", "admin@example.com", "MAINTENANCE_ON", nil, nil, nil, nil, nil, at))

	got, err := repo.List(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ActionUserBlock, got[0].Action)
	assert.JSONEq(t, `{"blocked":true}`, string(got[0].Meta))
	assert.Equal(t, "curl", got[0].UserAgent)
	assert.Empty(t, got[1].TargetID)
	assert.Nil(t, got[1].Meta)
}

func TestList_AllFilters(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`(?s)WHERE\s+action\s*=\s*\$1\s+AND\s+created_at\s*>=\s*\$2\s+AND\s+\(actor_email\s+ILIKE\s+\$3.*meta::text\s+ILIKE\s+\$3\)\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$4$`).
		WithArgs("USER_KICK", since, "%bob%", 100).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.List(context.Background(), models.AuditFilter{Action: "USER_KICK", Since: since, Query: " bob ", Take: 100})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
