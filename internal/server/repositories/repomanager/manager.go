package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/maintenance"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/passwordresets"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on a plain connection or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	LoginAttempts(db dbx.DBTX) loginattempts.Repository
	Maintenance(db dbx.DBTX) maintenance.Repository
	Audit(db dbx.DBTX) audit.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
}
