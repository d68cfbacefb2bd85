package services

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const resetTokenBytes = 32

// ResetNotifier delivers a password reset link to the account owner.
type ResetNotifier interface {
	SendResetLink(ctx context.Context, email, link string) error
}

// LogResetNotifier writes reset links to the log. It stands in for a mail
// gateway in development.
type LogResetNotifier struct {
	Logger logging.Logger
}

func (n LogResetNotifier) SendResetLink(ctx context.Context, email, link string) error {
	n.Logger.Info(ctx, "password reset link", "email", email, "link", link)
	return nil
}

// AccountService covers self-service account flows: signup and password
// reset by emailed token.
type AccountService struct {
	base
	hasher   *auth.PasswordHasher
	notifier ResetNotifier
	resetTTL time.Duration
	baseURL  string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, hasher *auth.PasswordHasher, notifier ResetNotifier, logger logging.Logger) *AccountService {
	return &AccountService{
		base:     newBase(db, m, logger),
		hasher:   hasher,
		notifier: notifier,
		resetTTL: cfg.ResetTokenTTL,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// Signup creates a USER account.
func (s *AccountService) Signup(ctx context.Context, email, password string) (*models.Account, error) {
	email = common.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, common.ErrInvalidEmail
	}
	return s.create(ctx, email, password, models.RoleUser)
}

func (s *AccountService) create(ctx context.Context, email, password string, role models.Role) (*models.Account, error) {
	if err := common.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.fail(ctx, "password hash failed", err)
	}

	acc, err := s.accounts().Create(ctx, &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, s.fail(ctx, "account create failed", err)
	}
	s.logger.Info(ctx, "account created", "account_id", acc.ID, "role", role)
	return acc, nil
}

// EnsureAdmin creates an ADMIN account, or promotes an existing one and
// replaces its password.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (*models.Account, error) {
	email = common.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, common.ErrInvalidEmail
	}

	acc, err := s.accounts().GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return s.create(ctx, email, password, models.RoleAdmin)
	}
	if err != nil {
		return nil, s.fail(ctx, "account lookup failed", err)
	}

	if err := common.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.fail(ctx, "password hash failed", err)
	}

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		if err := repo.SetRole(ctx, acc.ID, models.RoleAdmin); err != nil {
			return err
		}
		epoch, err := repo.SetPassword(ctx, acc.ID, hash)
		acc.SessionEpoch = epoch
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "admin promote failed", err)
	}
	acc.Role = models.RoleAdmin
	acc.PasswordHash = hash
	return acc, nil
}

// ForgotPassword issues a reset token and hands the link to the notifier.
// Unknown emails succeed silently so the call cannot be used to discover
// accounts.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)

	if _, err := s.accounts().GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "password reset for unknown email", "email", email)
			return nil
		}
		return s.fail(ctx, "account lookup failed", err)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return s.fail(ctx, "reset token generation failed", err)
	}

	now := s.now()
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.PasswordResets(tx)
		if err := repo.DeleteByEmail(ctx, email); err != nil {
			return err
		}
		return repo.Create(ctx, &models.PasswordReset{
			Email:     email,
			TokenHash: common.SHA256Hex(token),
			ExpiresAt: now.Add(s.resetTTL),
			CreatedAt: now,
		})
	})
	if err != nil {
		return s.fail(ctx, "reset token store failed", err)
	}

	link := s.baseURL + "/reset?token=" + url.QueryEscape(token)
	if err := s.notifier.SendResetLink(ctx, email, link); err != nil {
		return s.fail(ctx, "reset link delivery failed", err)
	}
	return nil
}

// ResetPassword consumes a reset token. Outstanding tokens for the email
// are removed and every session of the account ends.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if err := common.ValidatePassword(password); err != nil {
		return err
	}

	reset, err := s.passwordResets().FindByHash(ctx, common.SHA256Hex(token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenInvalid
		}
		return s.fail(ctx, "reset token lookup failed", err)
	}
	if !s.now().Before(reset.ExpiresAt) {
		return common.ErrResetTokenInvalid
	}

	acc, err := s.accounts().GetByEmail(ctx, reset.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrResetTokenInvalid
		}
		return s.fail(ctx, "account lookup failed", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return s.fail(ctx, "password hash failed", err)
	}

	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).SetPassword(ctx, acc.ID, hash); err != nil {
			return err
		}
		return s.repomanager.PasswordResets(tx).DeleteByEmail(ctx, reset.Email)
	})
	if err != nil {
		return s.fail(ctx, "password reset failed", err)
	}
	s.logger.Info(ctx, "password reset", "account_id", acc.ID)
	return nil
}
