// Package services contains the portal's business logic: credential
// checks, the login ledger, session issuance and validation, the
// maintenance switch, privileged account administration and the audit log.
//
// Every service takes a *sql.DB and a RepositoryManager. A nil *sql.DB
// pairs with the in-memory repository manager; see base.inTx.
package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/maintenance"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
)

type base struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	now         func() time.Time
}

func newBase(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) base {
	return base{db: db, repomanager: m, logger: logger, now: time.Now}
}

func (b *base) accounts() accounts.Repository {
	return b.repomanager.Accounts(dbx.Handle(b.db))
}

func (b *base) loginAttempts() loginattempts.Repository {
	return b.repomanager.LoginAttempts(dbx.Handle(b.db))
}

func (b *base) maintenance() maintenance.Repository {
	return b.repomanager.Maintenance(dbx.Handle(b.db))
}

func (b *base) audit() audit.Repository {
	return b.repomanager.Audit(dbx.Handle(b.db))
}

func (b *base) passwordResets() passwordresets.Repository {
	return b.repomanager.PasswordResets(dbx.Handle(b.db))
}

// inTx runs fn in a database transaction. Without a database it holds the
// repository manager's lock instead, when the manager provides one.
func (b *base) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if b.db == nil {
		if l, ok := b.repomanager.(sync.Locker); ok {
			l.Lock()
			defer l.Unlock()
		}
	}
	return dbx.InTx(ctx, b.db, fn)
}

// fail maps a repository error to the service taxonomy. Not-found passes
// through; anything else is logged and hidden behind ErrorInternal.
func (b *base) fail(ctx context.Context, msg string, err error, args ...any) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	b.logger.Error(ctx, msg, append(args, "error", err)...)
	return common.ErrorInternal
}
