// Package accounts stores portal accounts. Every method that changes the
// session epoch increments it in place and returns the new value.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)

	// RecordLogin bumps the epoch and stores the login time and address.
	RecordLogin(ctx context.Context, id string, ip string, at time.Time) (int64, error)
	IncrementEpoch(ctx context.Context, id string) (int64, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (int64, error)
	SetPassword(ctx context.Context, id string, passwordHash string) (int64, error)
	SetRole(ctx context.Context, id string, role models.Role) error

	// KickAllByRole bumps the epoch of every account with the given role in
	// one statement and returns the number of accounts affected.
	KickAllByRole(ctx context.Context, role models.Role) (int64, error)
}
