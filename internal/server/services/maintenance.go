package services

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/dbx"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/metrics"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
)

// MaintenanceUpdate is the switch after Set, with the number of USER
// accounts whose sessions were ended by it.
type MaintenanceUpdate struct {
	models.MaintenanceConfig
	Kicked int64
}

type MaintenanceService struct {
	base
	auditor *AuditService
}

func NewMaintenanceService(db *sql.DB, m repomanager.RepositoryManager, auditor *AuditService, logger logging.Logger) *MaintenanceService {
	return &MaintenanceService{base: newBase(db, m, logger), auditor: auditor}
}

// Status is public: the login page shows the message to everyone.
func (s *MaintenanceService) Status(ctx context.Context) (*models.MaintenanceConfig, error) {
	cfg, err := s.maintenance().Get(ctx)
	if err != nil {
		return nil, s.fail(ctx, "maintenance read failed", err)
	}
	return cfg, nil
}

// Set writes the switch. Turning it on from off also ends every USER
// session in the same transaction; admins keep theirs.
func (s *MaintenanceService) Set(ctx context.Context, actor models.Principal, active bool, message string, meta models.RequestMeta) (*MaintenanceUpdate, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	message = strings.TrimSpace(message)

	var update MaintenanceUpdate
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Maintenance(tx)

		prev, err := repo.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		cfg, err := repo.Upsert(ctx, active, message, s.now())
		if err != nil {
			return err
		}
		update.MaintenanceConfig = *cfg

		if active && !prev.Active {
			n, err := s.repomanager.Accounts(tx).KickAllByRole(ctx, models.RoleUser)
			if err != nil {
				return err
			}
			update.Kicked = n
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "maintenance update failed", err)
	}

	metrics.SessionsRevoked.Add(float64(update.Kicked))
	action := models.ActionMaintenanceOff
	if active {
		action = models.ActionMaintenanceOn
	}
	s.auditor.Record(ctx, actor, action, nil, map[string]any{"message": message, "kicked": update.Kicked}, meta)
	s.logger.Info(ctx, "maintenance switched", "active", active, "kicked", update.Kicked, "actor", actor.Email)
	return &update, nil
}

// LogoutAll ends every USER session and returns how many accounts were
// affected.
func (s *MaintenanceService) LogoutAll(ctx context.Context, actor models.Principal, meta models.RequestMeta) (int64, error) {
	if !actor.IsAdmin() {
		return 0, common.ErrForbidden
	}

	n, err := s.accounts().KickAllByRole(ctx, models.RoleUser)
	if err != nil {
		return 0, s.fail(ctx, "logout all failed", err)
	}

	metrics.SessionsRevoked.Add(float64(n))
	s.auditor.Record(ctx, actor, models.ActionUsersLogoutAll, nil, map[string]any{"count": n}, meta)
	return n, nil
}

// Notice is public like Status; every page renders the banner.
func (s *MaintenanceService) Notice(ctx context.Context) (*models.SystemNotice, error) {
	n, err := s.maintenance().GetNotice(ctx)
	if err != nil {
		return nil, s.fail(ctx, "notice read failed", err)
	}
	return n, nil
}

// SetNotice publishes the banner, or clears it when active is false.
// The text of a cleared notice is kept empty.
func (s *MaintenanceService) SetNotice(ctx context.Context, actor models.Principal, active bool, text string, meta models.RequestMeta) (*models.SystemNotice, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	text = strings.TrimSpace(text)
	if !active {
		text = ""
	} else if text == "" {
		return nil, common.ErrNoticeEmpty
	} else if utf8.RuneCountInString(text) > common.MaxNoticeLength {
		return nil, common.ErrNoticeTooLong
	}

	n, err := s.maintenance().SetNotice(ctx, active, text, s.now())
	if err != nil {
		return nil, s.fail(ctx, "notice update failed", err)
	}

	action := models.ActionNoticeOff
	if active {
		action = models.ActionNoticeOn
	}
	s.auditor.Record(ctx, actor, action, nil, map[string]any{"text": text}, meta)
	s.logger.Info(ctx, "system notice switched", "active", active, "actor", actor.Email)
	return n, nil
}
