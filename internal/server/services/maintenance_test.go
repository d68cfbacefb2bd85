package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	accountsrepo "github.com/dmitrijs2005/tvportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMaintenance_ActivationKicksUsersOnly(t *testing.T) {
	f := newFixture(t)
	adminAcc := f.account(t, "root@example.com", "rootpw", models.RoleAdmin)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	f.account(t, "carol@example.com", "carolpw", models.RoleUser)
	ctx := context.Background()

	adminTok := f.login(t, "root@example.com", "rootpw")
	bobTok := f.login(t, "bob@example.com", "bobpw1")

	upd, err := f.maintenance.Set(ctx, principalOf(adminAcc), true, "  Upgrading until 6pm ", meta)
	require.NoError(t, err)
	assert.True(t, upd.Active)
	assert.Equal(t, "Upgrading until 6pm", upd.Message)
	assert.Equal(t, int64(2), upd.Kicked)

	_, err = f.sessions.Validate(ctx, bobTok)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)
	_, err = f.sessions.Validate(ctx, adminTok)
	assert.NoError(t, err, "admin sessions survive activation")

	again, err := f.maintenance.Set(ctx, principalOf(adminAcc), true, "still upgrading", meta)
	require.NoError(t, err)
	assert.Zero(t, again.Kicked, "only the off to on transition kicks")

	status, err := f.maintenance.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "still upgrading", status.Message)
}

func TestMaintenance_LoginGate(t *testing.T) {
	f := newFixture(t)
	adminAcc := f.account(t, "root@example.com", "rootpw", models.RoleAdmin)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	_, err := f.maintenance.Set(ctx, principalOf(adminAcc), true, "back soon", meta)
	require.NoError(t, err)

	for _, tc := range []struct{ email, password string }{
		{"bob@example.com", "bobpw1"},
		{"bob@example.com", "wrong!!"},
		{"ghost@example.com", "whatever"},
	} {
		_, err := f.sessions.Login(ctx, tc.email, tc.password, meta)
		var me *common.MaintenanceError
		require.True(t, errors.As(err, &me), "%s: %v", tc.email, err)
		assert.Equal(t, "back soon", me.Message)
		assert.False(t, errors.Is(err, common.ErrAuthenticationFailure))
	}

	n, _ := f.rm.LoginAttempts(nil).CountFailuresByIP(ctx, meta.IP, f.clock.Add(-time.Hour))
	assert.Zero(t, n, "maintenance rejections are not recorded")

	f.login(t, "root@example.com", "rootpw")

	_, err = f.maintenance.Set(ctx, principalOf(adminAcc), false, "", meta)
	require.NoError(t, err)
	f.login(t, "bob@example.com", "bobpw1")
}

func TestMaintenance_BlockedAccountSeesMaintenance(t *testing.T) {
	f := newFixture(t)
	admin := principalOf(f.account(t, "root@example.com", "rootpw", models.RoleAdmin))
	bob := f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, f.sessions.AdminBlock(ctx, admin, bob.ID, true, meta))
	_, err := f.maintenance.Set(ctx, admin, true, "", meta)
	require.NoError(t, err)

	_, err = f.sessions.Login(ctx, "bob@example.com", "bobpw1", meta)
	assert.ErrorIs(t, err, common.ErrMaintenance)
}

func TestMaintenance_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	bob := principalOf(f.account(t, "bob@example.com", "bobpw1", models.RoleUser))

	_, err := f.maintenance.Set(context.Background(), bob, true, "", meta)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.maintenance.LogoutAll(context.Background(), bob, meta)
	assert.ErrorIs(t, err, common.ErrForbidden)

	status, _ := f.maintenance.Status(context.Background())
	assert.False(t, status.Active)
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	adminAcc := f.account(t, "root@example.com", "rootpw", models.RoleAdmin)
	f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	adminTok := f.login(t, "root@example.com", "rootpw")
	bobTok := f.login(t, "bob@example.com", "bobpw1")

	n, err := f.maintenance.LogoutAll(ctx, principalOf(adminAcc), meta)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.sessions.Validate(ctx, bobTok)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)
	_, err = f.sessions.Validate(ctx, adminTok)
	assert.NoError(t, err)

	recs, err := f.audit.List(ctx, principalOf(adminAcc), models.AuditFilter{Action: string(models.ActionUsersLogoutAll)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{"count":1}`, string(recs[0].Meta))
}

func TestMaintenanceSet_Postgres_TransactionalKick(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	svc := NewMaintenanceService(db, rm, NewAuditService(db, rm, nil, nopLogger{}), nopLogger{})
	admin := models.Principal{AccountID: "a1", Email: "root@example.com", Role: models.RoleAdmin}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM app_config WHERE id = 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"maintenance_active", "maintenance_message", "updated_at"}).AddRow(false, "", now))
	mock.ExpectQuery(`INSERT INTO app_config`).
		WithArgs(true, "upgrade", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"maintenance_active", "maintenance_message", "updated_at"}).AddRow(true, "upgrade", now))
	mock.ExpectExec(`UPDATE accounts SET session_epoch = session_epoch \+ 1 WHERE role = \$1`).
		WithArgs("USER").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectQuery(`INSERT INTO audit_log`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	upd, err := svc.Set(context.Background(), admin, true, "upgrade", meta)
	require.NoError(t, err)
	assert.Equal(t, int64(3), upd.Kicked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceSet_Postgres_RollbackOnKickFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	svc := NewMaintenanceService(db, rm, NewAuditService(db, rm, nil, nopLogger{}), nopLogger{})
	admin := models.Principal{AccountID: "a1", Email: "root@example.com", Role: models.RoleAdmin}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"maintenance_active", "maintenance_message", "updated_at"}).AddRow(false, "", now))
	mock.ExpectQuery(`INSERT INTO app_config`).
		WillReturnRows(sqlmock.NewRows([]string{"maintenance_active", "maintenance_message", "updated_at"}).AddRow(true, "", now))
	mock.ExpectExec(`UPDATE accounts`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err = svc.Set(context.Background(), admin, true, "", meta)
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

// lookupHookManager runs onLookup once, the first time an account is
// looked up by email.
type lookupHookManager struct {
	*repomanager.InMemoryRepositoryManager
	onLookup func()
}

func (m *lookupHookManager) Accounts(db dbx.DBTX) accountsrepo.Repository {
	return &lookupHookAccounts{Repository: m.InMemoryRepositoryManager.Accounts(db), m: m}
}

type lookupHookAccounts struct {
	accountsrepo.Repository
	m *lookupHookManager
}

func (a *lookupHookAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if hook := a.m.onLookup; hook != nil {
		a.m.onLookup = nil
		hook()
	}
	return a.Repository.GetByEmail(ctx, email)
}

func TestMaintenance_ActivatedDuringLogin(t *testing.T) {
	rm := &lookupHookManager{InMemoryRepositoryManager: repomanager.NewInMemoryRepositoryManager()}
	f := newFixtureWith(t, rm)
	adminAcc := f.account(t, "root@example.com", "rootpw", models.RoleAdmin)
	bob := f.account(t, "bob@example.com", "bobpw1", models.RoleUser)
	ctx := context.Background()

	// The switch flips while bob's password is being checked.
	rm.onLookup = func() {
		upd, err := f.maintenance.Set(ctx, principalOf(adminAcc), true, "upgrade", meta)
		require.NoError(t, err)
		assert.Equal(t, int64(1), upd.Kicked)
	}

	res, err := f.sessions.Login(ctx, "bob@example.com", "bobpw1", meta)
	assert.Nil(t, res)
	var me *common.MaintenanceError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Equal(t, "upgrade", me.Message)

	stored, err := f.rm.Accounts(nil).GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.SessionEpoch, "only the kick moved the epoch")
	assert.Nil(t, stored.LastLoginAt)

	// An admin caught by the same race still gets in.
	rm.onLookup = func() {
		_, err := f.maintenance.Set(ctx, principalOf(adminAcc), false, "", meta)
		require.NoError(t, err)
		_, err = f.maintenance.Set(ctx, principalOf(adminAcc), true, "again", meta)
		require.NoError(t, err)
	}
	tok := f.login(t, "root@example.com", "rootpw")
	_, err = f.sessions.Validate(ctx, tok)
	assert.NoError(t, err)
}

func TestLogin_Postgres_SwitchRereadInSessionTransaction(t *testing.T) {
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := hasher.Hash("bobpw1")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	maintenanceCols := []string{"maintenance_active", "maintenance_message", "updated_at"}
	accountCols := []string{"id", "email", "password_hash", "role", "blocked", "session_epoch", "last_login_at", "last_login_ip", "created_at"}
	now := time.Now()

	newService := func(t *testing.T) (*SessionService, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		rm := repomanager.NewPostgresRepositoryManager()
		ledger := NewLoginLedger(db, rm, PolicyFromConfig(cfg), nopLogger{})
		svc := NewSessionService(db, rm, cfg, hasher, ledger, NewAuditService(db, rm, nil, nopLogger{}), nopLogger{})

		mock.ExpectQuery(`FROM app_config WHERE id = 1$`).
			WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(false, "", now))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM login_attempts`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM login_attempts`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`FROM accounts WHERE email = \$1`).
			WithArgs("bob@example.com").
			WillReturnRows(sqlmock.NewRows(accountCols).AddRow("u1", "bob@example.com", hash, "USER", false, 3, nil, nil, now))
		return svc, mock
	}

	t.Run("switched on since the gate", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM app_config WHERE id = 1 FOR SHARE$`).
			WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(true, "upgrade", now))
		mock.ExpectRollback()

		_, err := svc.Login(context.Background(), "bob@example.com", "bobpw1", meta)
		var me *common.MaintenanceError
		require.True(t, errors.As(err, &me), "got %v", err)
		assert.Equal(t, "upgrade", me.Message)
		require.NoError(t, mock.ExpectationsWereMet(), "no epoch bump and no ledger entry")
	})

	t.Run("still off", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM app_config WHERE id = 1 FOR SHARE$`).
			WillReturnRows(sqlmock.NewRows(maintenanceCols).AddRow(false, "", now))
		mock.ExpectQuery(`UPDATE accounts SET session_epoch = session_epoch \+ 1, last_login_at`).
			WithArgs("u1", sqlmock.AnyArg(), meta.IP).
			WillReturnRows(sqlmock.NewRows([]string{"session_epoch"}).AddRow(4))
		mock.ExpectCommit()
		mock.ExpectExec(`INSERT INTO login_attempts`).
			WithArgs("bob@example.com", meta.IP, true, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		res, err := svc.Login(context.Background(), "bob@example.com", "bobpw1", meta)
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.Account.SessionEpoch)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNotice_SetAndClear(t *testing.T) {
	f := newFixture(t)
	adminAcc := f.account(t, "root@example.com", "rootpw", models.RoleAdmin)
	admin := principalOf(adminAcc)
	bob := principalOf(f.account(t, "bob@example.com", "bobpw1", models.RoleUser))
	ctx := context.Background()

	n, err := f.maintenance.Notice(ctx)
	require.NoError(t, err)
	assert.False(t, n.Active)

	_, err = f.maintenance.SetNotice(ctx, bob, true, "hi", meta)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.maintenance.SetNotice(ctx, admin, true, "   ", meta)
	assert.ErrorIs(t, err, common.ErrNoticeEmpty)
	_, err = f.maintenance.SetNotice(ctx, admin, true, strings.Repeat("ж", common.MaxNoticeLength+1), meta)
	assert.ErrorIs(t, err, common.ErrNoticeTooLong)
	assert.ErrorIs(t, err, common.ErrValidation)

	n, err = f.maintenance.SetNotice(ctx, admin, true, strings.Repeat("ж", common.MaxNoticeLength), meta)
	require.NoError(t, err, "the limit counts characters, not bytes")
	assert.True(t, n.Active)

	f.advance(time.Second)
	n, err = f.maintenance.SetNotice(ctx, admin, true, " New channels added ", meta)
	require.NoError(t, err)
	assert.Equal(t, "New channels added", n.Text)

	// the banner is not a gate
	f.login(t, "bob@example.com", "bobpw1")
	status, _ := f.maintenance.Status(ctx)
	assert.False(t, status.Active)

	f.advance(time.Second)
	n, err = f.maintenance.SetNotice(ctx, admin, false, "ignored", meta)
	require.NoError(t, err)
	assert.False(t, n.Active)
	assert.Empty(t, n.Text)

	got, err := f.maintenance.Notice(ctx)
	require.NoError(t, err)
	assert.Equal(t, *n, *got)

	recs, err := f.audit.List(ctx, admin, models.AuditFilter{})
	require.NoError(t, err)
	var actions []models.AuditAction
	for _, r := range recs {
		actions = append(actions, r.Action)
	}
	assert.Equal(t, []models.AuditAction{models.ActionNoticeOff, models.ActionNoticeOn, models.ActionNoticeOn}, actions)
}
