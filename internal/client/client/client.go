package client

import (
	"context"

	"github.com/dmitrijs2005/tvportal/internal/client/models"
)

type Client interface {
	Close() error
	SetToken(token string)
	Login(ctx context.Context, email string, password []byte) (token, expiresAt string, err error)
	Whoami(ctx context.Context) (*models.Whoami, error)
	MaintenanceStatus(ctx context.Context) (*models.Maintenance, error)
	SetMaintenance(ctx context.Context, active bool, message string) (*models.Maintenance, error)
	LogoutAll(ctx context.Context) (int64, error)
	Notice(ctx context.Context) (*models.Notice, error)
	SetNotice(ctx context.Context, active bool, text string) (*models.Notice, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	Kick(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id string, password []byte) error
	SetRole(ctx context.Context, id, role string) error
	ChangePassword(ctx context.Context, current, next []byte) error
	ListAudit(ctx context.Context, query, action string, take int) ([]models.AuditRecord, error)
	ExportAudit(ctx context.Context, since string) (*models.AuditExport, error)
}
