package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	auditrepo "github.com/dmitrijs2005/tvportal/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/loginattempts"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

type captureNotifier struct {
	mu    sync.Mutex
	links map[string]string
}

func (n *captureNotifier) SendResetLink(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.links == nil {
		n.links = map[string]string{}
	}
	n.links[email] = link
	return nil
}

func (n *captureNotifier) token(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	link, ok := n.links[email]
	require.True(t, ok, "no reset link sent to %s", email)
	i := strings.Index(link, "token=")
	require.GreaterOrEqual(t, i, 0)
	return link[i+len("token="):]
}

type fakeStore struct {
	puts map[string][]byte
	ct   string
	err  error
}

func (s *fakeStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[key] = body
	s.ct = contentType
	return nil
}

func (s *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://signed/" + key, nil
}

// faultyManager wraps the in-memory manager and fails selected repositories.
type faultyManager struct {
	*repomanager.InMemoryRepositoryManager
	auditErr    error
	attemptsErr error
}

func (m *faultyManager) Audit(db dbx.DBTX) auditrepo.Repository {
	if m.auditErr != nil {
		return failingAudit{m.auditErr}
	}
	return m.InMemoryRepositoryManager.Audit(db)
}

func (m *faultyManager) LoginAttempts(db dbx.DBTX) loginattempts.Repository {
	if m.attemptsErr != nil {
		return failingAttempts{m.attemptsErr}
	}
	return m.InMemoryRepositoryManager.LoginAttempts(db)
}

type failingAudit struct{ err error }

func (f failingAudit) Append(context.Context, *models.AuditRecord) error { return f.err }
func (f failingAudit) List(context.Context, models.AuditFilter) ([]models.AuditRecord, error) {
	return nil, f.err
}

type failingAttempts struct{ err error }

func (f failingAttempts) Record(context.Context, string, string, bool, time.Time) error {
	return f.err
}
func (f failingAttempts) CountFailuresByEmail(context.Context, string, time.Time) (int, error) {
	return 0, f.err
}
func (f failingAttempts) CountFailuresByIP(context.Context, string, time.Time) (int, error) {
	return 0, f.err
}

type fixture struct {
	rm       repomanager.RepositoryManager
	clock    time.Time
	hasher   *auth.PasswordHasher
	cfg      *config.Config
	store    *fakeStore
	notifier *captureNotifier

	audit       *AuditService
	ledger      *LoginLedger
	sessions    *SessionService
	maintenance *MaintenanceService
	accounts    *AccountService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, repomanager.NewInMemoryRepositoryManager())
}

func newFixtureWith(t *testing.T, rm repomanager.RepositoryManager) *fixture {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"

	f := &fixture{
		rm:       rm,
		clock:    time.Now().UTC().Truncate(time.Second),
		hasher:   hasher,
		cfg:      cfg,
		store:    &fakeStore{},
		notifier: &captureNotifier{},
	}
	log := nopLogger{}

	f.audit = NewAuditService(nil, rm, f.store, log)
	f.ledger = NewLoginLedger(nil, rm, PolicyFromConfig(cfg), log)
	f.sessions = NewSessionService(nil, rm, cfg, hasher, f.ledger, f.audit, log)
	f.maintenance = NewMaintenanceService(nil, rm, f.audit, log)
	f.accounts = NewAccountService(nil, rm, cfg, hasher, f.notifier, log)

	now := func() time.Time { return f.clock }
	for _, b := range []*base{&f.audit.base, &f.ledger.base, &f.sessions.base, &f.sessions.verifier.base, &f.maintenance.base, &f.accounts.base} {
		b.now = now
	}
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) account(t *testing.T, email, password string, role models.Role) *models.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	acc, err := f.rm.Accounts(nil).Create(context.Background(), &models.Account{
		ID: "id-" + email, Email: email, PasswordHash: hash, Role: role, CreatedAt: f.clock,
	})
	require.NoError(t, err)
	return acc
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	res, err := f.sessions.Login(context.Background(), email, password, models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	return res.Token
}

func principalOf(a *models.Account) models.Principal {
	return models.Principal{AccountID: a.ID, Email: a.Email, Role: a.Role}
}
