// Package maintenance stores the singleton maintenance switch and the
// system notice banner (row id = 1).
package maintenance

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type Repository interface {
	// Get returns the current switch. A missing row reads as inactive.
	Get(ctx context.Context) (*models.MaintenanceConfig, error)
	// GetForUpdate is Get that also locks the row until the transaction ends.
	GetForUpdate(ctx context.Context) (*models.MaintenanceConfig, error)
	// GetForShare is Get that holds a shared lock until the transaction
	// ends, so the switch cannot flip while the caller acts on it.
	GetForShare(ctx context.Context) (*models.MaintenanceConfig, error)
	Upsert(ctx context.Context, active bool, message string, at time.Time) (*models.MaintenanceConfig, error)

	// GetNotice returns the banner. A missing row reads as inactive.
	GetNotice(ctx context.Context) (*models.SystemNotice, error)
	SetNotice(ctx context.Context, active bool, text string, at time.Time) (*models.SystemNotice, error)
}
