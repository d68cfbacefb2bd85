package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
)

// LoginPolicy bounds failed attempts within a sliding window.
type LoginPolicy struct {
	Window           time.Duration
	MaxEmailFailures int
	MaxIPFailures    int
}

func PolicyFromConfig(cfg *config.Config) LoginPolicy {
	return LoginPolicy{
		Window:           cfg.LoginWindow,
		MaxEmailFailures: cfg.MaxEmailFailures,
		MaxIPFailures:    cfg.MaxIPFailures,
	}
}

// LoginLedger records login attempts and answers whether another attempt
// is allowed for an email and client address.
type LoginLedger struct {
	base
	policy LoginPolicy
}

func NewLoginLedger(db *sql.DB, m repomanager.RepositoryManager, policy LoginPolicy, logger logging.Logger) *LoginLedger {
	return &LoginLedger{base: newBase(db, m, logger), policy: policy}
}

// Record appends one attempt. Write failures are logged and swallowed.
func (l *LoginLedger) Record(ctx context.Context, email, ip string, ok bool) {
	if err := l.loginAttempts().Record(ctx, email, ip, ok, l.now()); err != nil {
		l.logger.Warn(ctx, "login attempt not recorded", "email", email, "ip", ip, "error", err)
	}
}

// Allowed is false once either the email or the address has reached its
// failure limit inside the window.
func (l *LoginLedger) Allowed(ctx context.Context, email, ip string) (bool, error) {
	since := l.now().Add(-l.policy.Window)
	repo := l.loginAttempts()

	byEmail, err := repo.CountFailuresByEmail(ctx, email, since)
	if err != nil {
		return false, err
	}
	if byEmail >= l.policy.MaxEmailFailures {
		return false, nil
	}

	byIP, err := repo.CountFailuresByIP(ctx, ip, since)
	if err != nil {
		return false, err
	}
	return byIP < l.policy.MaxIPFailures, nil
}
