package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/metrics"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
)

// LoginResult is a freshly minted session.
type LoginResult struct {
	Token     string
	Account   *models.Account
	ExpiresAt time.Time
}

// SessionService is the session authority. It issues tokens bound to the
// account's session epoch and re-checks that binding on every request.
// Any epoch increment (login, block, kick, password change) invalidates
// all previously issued tokens of the account.
type SessionService struct {
	base
	verifier   *CredentialVerifier
	ledger     *LoginLedger
	auditor    *AuditService
	hasher     *auth.PasswordHasher
	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, hasher *auth.PasswordHasher, ledger *LoginLedger, auditor *AuditService, logger logging.Logger) *SessionService {
	return &SessionService{
		base:       newBase(db, m, logger),
		verifier:   NewCredentialVerifier(db, m, hasher, logger),
		ledger:     ledger,
		auditor:    auditor,
		hasher:     hasher,
		jwtSecret:  []byte(cfg.SecretKey),
		sessionTTL: cfg.SessionTTL,
	}
}

// Login authenticates and opens a new session, which ends every other
// session of the account.
//
// Checks run in order: maintenance gate, rate limit, credentials. A
// maintenance rejection is not written to the ledger; every other
// rejection is recorded as a failure.
func (s *SessionService) Login(ctx context.Context, email, password string, meta models.RequestMeta) (*LoginResult, error) {
	email = common.NormalizeEmail(email)

	if err := s.maintenanceGate(ctx, email); err != nil {
		if errors.Is(err, common.ErrMaintenance) {
			metrics.LoginAttempts.WithLabelValues(metrics.LoginMaintenance).Inc()
		} else {
			metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		}
		return nil, err
	}

	allowed, err := s.ledger.Allowed(ctx, email, meta.IP)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		return nil, s.fail(ctx, "login ledger unavailable", err)
	}
	if !allowed {
		s.ledger.Record(ctx, email, meta.IP, false)
		metrics.LoginAttempts.WithLabelValues(metrics.LoginRateLimited).Inc()
		s.logger.Warn(ctx, "login rate limited", "email", email, "ip", meta.IP)
		return nil, common.ErrRateLimited
	}

	acc, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAccountBlocked):
			s.ledger.Record(ctx, email, meta.IP, false)
			metrics.LoginAttempts.WithLabelValues(metrics.LoginBlocked).Inc()
		case errors.Is(err, common.ErrAuthenticationFailure):
			s.ledger.Record(ctx, email, meta.IP, false)
			metrics.LoginAttempts.WithLabelValues(metrics.LoginBadCredentials).Inc()
		default:
			metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		}
		return nil, err
	}

	now := s.now()
	epoch, err := s.openSession(ctx, acc, meta.IP, now)
	if err != nil {
		var me *common.MaintenanceError
		if errors.As(err, &me) {
			metrics.LoginAttempts.WithLabelValues(metrics.LoginMaintenance).Inc()
			return nil, me
		}
		metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		return nil, s.fail(ctx, "record login failed", err, "account_id", acc.ID)
	}
	s.ledger.Record(ctx, email, meta.IP, true)
	acc.SessionEpoch = epoch
	acc.LastLoginAt = &now
	acc.LastLoginIP = meta.IP

	token, err := auth.GenerateToken(acc, epoch, s.jwtSecret, s.sessionTTL, now)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
		return nil, s.fail(ctx, "token signing failed", err, "account_id", acc.ID)
	}

	metrics.LoginAttempts.WithLabelValues(metrics.LoginOK).Inc()
	s.logger.Info(ctx, "login", "account_id", acc.ID, "ip", meta.IP)
	return &LoginResult{Token: token, Account: acc, ExpiresAt: now.Add(s.sessionTTL)}, nil
}

// openSession bumps the epoch of a verified account. The switch is read
// again under a shared lock in the same transaction, so maintenance turned
// on after the early gate still stops a non-admin login, and a switch that
// is about to turn on waits for this login and then kicks it.
func (s *SessionService) openSession(ctx context.Context, acc *models.Account, ip string, now time.Time) (int64, error) {
	var epoch int64
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		cfg, err := s.repomanager.Maintenance(tx).GetForShare(ctx)
		if err != nil {
			return err
		}
		if cfg.Active && acc.Role != models.RoleAdmin {
			return &common.MaintenanceError{Message: cfg.Message}
		}
		epoch, err = s.repomanager.Accounts(tx).RecordLogin(ctx, acc.ID, ip, now)
		return err
	})
	return epoch, err
}

// maintenanceGate lets everyone through unless maintenance is active, in
// which case only existing ADMIN accounts may continue.
func (s *SessionService) maintenanceGate(ctx context.Context, email string) error {
	cfg, err := s.maintenance().Get(ctx)
	if err != nil {
		return s.fail(ctx, "maintenance read failed", err)
	}
	if !cfg.Active {
		return nil
	}

	acc, err := s.accounts().GetByEmail(ctx, email)
	switch {
	case err == nil && acc.Role == models.RoleAdmin:
		return nil
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return s.fail(ctx, "account lookup failed", err)
	}
	return &common.MaintenanceError{Message: cfg.Message}
}

// Validate resolves a token to the live principal. The account is re-read
// on every call. A missing or blocked account fails with ErrSessionInvalid,
// as does an epoch that differs from the token's. The returned role is the
// stored one, not the snapshot inside the token.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, common.ErrSessionInvalid
	}

	acc, err := s.accounts().GetByID(ctx, claims.AccountID())
	if err != nil {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionInvalid
		}
		return nil, s.fail(ctx, "session account lookup failed", err)
	}
	if acc.Blocked || acc.SessionEpoch != claims.Epoch {
		metrics.SessionValidations.WithLabelValues("invalid").Inc()
		return nil, common.ErrSessionInvalid
	}

	metrics.SessionValidations.WithLabelValues("ok").Inc()
	return &models.Principal{AccountID: acc.ID, Email: acc.Email, Role: acc.Role}, nil
}

func requireAdmin(actor models.Principal) error {
	if !actor.IsAdmin() {
		return common.ErrForbidden
	}
	return nil
}

func (s *SessionService) target(ctx context.Context, targetID string) (*models.Account, error) {
	acc, err := s.accounts().GetByID(ctx, targetID)
	if err != nil {
		return nil, s.fail(ctx, "target lookup failed", err, "target_id", targetID)
	}
	return acc, nil
}

// AdminBlock sets or clears the blocked flag. Both directions end the
// target's sessions.
func (s *SessionService) AdminBlock(ctx context.Context, actor models.Principal, targetID string, blocked bool, meta models.RequestMeta) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	target, err := s.target(ctx, targetID)
	if err != nil {
		return err
	}
	if _, err := s.accounts().SetBlocked(ctx, target.ID, blocked); err != nil {
		return s.fail(ctx, "set blocked failed", err, "target_id", target.ID)
	}

	action := models.ActionUserUnblock
	if blocked {
		action = models.ActionUserBlock
	}
	s.auditor.Record(ctx, actor, action, target, nil, meta)
	return nil
}

// AdminKick ends every session of the target without other changes.
func (s *SessionService) AdminKick(ctx context.Context, actor models.Principal, targetID string, meta models.RequestMeta) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	target, err := s.target(ctx, targetID)
	if err != nil {
		return err
	}
	if _, err := s.accounts().IncrementEpoch(ctx, target.ID); err != nil {
		return s.fail(ctx, "kick failed", err, "target_id", target.ID)
	}
	s.auditor.Record(ctx, actor, models.ActionUserKick, target, nil, meta)
	return nil
}

func (s *SessionService) AdminSetPassword(ctx context.Context, actor models.Principal, targetID, password string, meta models.RequestMeta) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := common.ValidatePassword(password); err != nil {
		return err
	}
	target, err := s.target(ctx, targetID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return s.fail(ctx, "password hash failed", err)
	}
	if _, err := s.accounts().SetPassword(ctx, target.ID, hash); err != nil {
		return s.fail(ctx, "set password failed", err, "target_id", target.ID)
	}
	s.auditor.Record(ctx, actor, models.ActionUserPasswordReset, target, nil, meta)
	return nil
}

// AdminSetRole changes a role without touching the epoch: the new role
// takes effect on the target's next request. An admin cannot demote
// themselves.
func (s *SessionService) AdminSetRole(ctx context.Context, actor models.Principal, targetID string, role models.Role, meta models.RequestMeta) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !role.Valid() {
		return common.ErrInvalidRole
	}
	if targetID == actor.AccountID && role != models.RoleAdmin {
		return common.ErrSelfDemotion
	}
	target, err := s.target(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.accounts().SetRole(ctx, target.ID, role); err != nil {
		return s.fail(ctx, "set role failed", err, "target_id", target.ID)
	}
	s.auditor.Record(ctx, actor, models.ActionUserRoleChange, target,
		map[string]any{"from": target.Role, "to": role}, meta)
	return nil
}

// ChangeOwnPassword replaces the caller's password. The caller's current
// session ends with it.
func (s *SessionService) ChangeOwnPassword(ctx context.Context, p models.Principal, current, next string) error {
	if err := common.ValidatePassword(next); err != nil {
		return err
	}

	acc, err := s.accounts().GetByID(ctx, p.AccountID)
	if err != nil {
		return s.fail(ctx, "account lookup failed", err)
	}
	ok, err := s.hasher.Compare(acc.PasswordHash, current)
	if err != nil {
		return s.fail(ctx, "password compare failed", err)
	}
	if !ok {
		return common.ErrWrongCurrentPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return s.fail(ctx, "password hash failed", err)
	}
	if _, err := s.accounts().SetPassword(ctx, acc.ID, hash); err != nil {
		return s.fail(ctx, "set password failed", err, "account_id", acc.ID)
	}
	s.logger.Info(ctx, "password changed", "account_id", acc.ID)
	return nil
}

func (s *SessionService) ListAccounts(ctx context.Context, actor models.Principal) ([]models.Account, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	list, err := s.accounts().List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "account list failed", err)
	}
	return list, nil
}
