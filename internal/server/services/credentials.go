package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
)

// CredentialVerifier checks an email/password pair against stored accounts.
type CredentialVerifier struct {
	base
	hasher *auth.PasswordHasher
}

func NewCredentialVerifier(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, logger logging.Logger) *CredentialVerifier {
	return &CredentialVerifier{base: newBase(db, m, logger), hasher: hasher}
}

// Verify returns the account when the password matches and the account is
// not blocked. An unknown email still pays for one bcrypt comparison so
// that response timing does not reveal which addresses exist.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*models.Account, error) {
	acc, err := v.accounts().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			v.hasher.CompareDummy(password)
			return nil, common.ErrBadCredentials
		}
		v.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := v.hasher.Compare(acc.PasswordHash, password)
	if err != nil {
		v.logger.Error(ctx, "password compare failed", "account_id", acc.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrBadCredentials
	}
	if acc.Blocked {
		return nil, common.ErrAccountBlocked
	}
	return acc, nil
}
