// Package audit stores the append-only log of privileged actions.
package audit

import (
	"context"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, rec *models.AuditRecord) error
	// List returns records newest first, limited by filter.Take.
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, error)
}
