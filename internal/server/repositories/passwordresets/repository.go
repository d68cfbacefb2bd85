// Package passwordresets stores hashed password reset tokens.
package passwordresets

import (
	"context"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	FindByHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)
	DeleteByEmail(ctx context.Context, email string) error
}
