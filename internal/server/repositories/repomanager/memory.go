package repomanager

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/maintenance"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/passwordresets"
)

// InMemoryRepositoryManager ignores the DBTX handle and always returns the
// same process-local repositories. Pair it with a nil *sql.DB (see dbx.InTx).
//
// It is also a sync.Locker: services hold it for the span of what would be
// a transaction against Postgres.
type InMemoryRepositoryManager struct {
	txMu sync.Mutex

	accounts       *accounts.MemoryRepository
	loginAttempts  *loginattempts.MemoryRepository
	maintenance    *maintenance.MemoryRepository
	audit          *audit.MemoryRepository
	passwordResets *passwordresets.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		accounts:       accounts.NewMemoryRepository(),
		loginAttempts:  loginattempts.NewMemoryRepository(),
		maintenance:    maintenance.NewMemoryRepository(),
		audit:          audit.NewMemoryRepository(),
		passwordResets: passwordresets.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Lock()   { m.txMu.Lock() }
func (m *InMemoryRepositoryManager) Unlock() { m.txMu.Unlock() }

// SetLoginRetention bounds how long login attempts are kept in memory.
// Pass the rate-limit window.
func (m *InMemoryRepositoryManager) SetLoginRetention(d time.Duration) {
	m.loginAttempts.SetRetention(d)
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

func (m *InMemoryRepositoryManager) LoginAttempts(dbx.DBTX) loginattempts.Repository {
	return m.loginAttempts
}

func (m *InMemoryRepositoryManager) Maintenance(dbx.DBTX) maintenance.Repository {
	return m.maintenance
}

func (m *InMemoryRepositoryManager) Audit(dbx.DBTX) audit.Repository { return m.audit }

func (m *InMemoryRepositoryManager) PasswordResets(dbx.DBTX) passwordresets.Repository {
	return m.passwordResets
}
