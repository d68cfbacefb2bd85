// Package session stores the portalctl session token per server endpoint.
package session

import (
	"context"

	"github.com/dmitrijs2005/tvportal/internal/client/models"
)

type Repository interface {
	// Get returns (nil, nil) when no session is stored for server.
	Get(ctx context.Context, server string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, server string) error
}
