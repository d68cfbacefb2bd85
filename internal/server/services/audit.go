package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/metrics"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tvportal/internal/server/storage"
)

const (
	defaultAuditTake = 100
	maxAuditTake     = 300
	exportLinkTTL    = 15 * time.Minute
)

// ObjectStore receives audit exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// AuditExport describes an uploaded NDJSON export.
type AuditExport struct {
	Key   string
	URL   string
	Count int
}

// AuditService appends to and reads from the audit log.
type AuditService struct {
	base
	store ObjectStore
}

// NewAuditService builds the service. store may be nil, in which case
// Export is unavailable.
func NewAuditService(db *sql.DB, m repomanager.RepositoryManager, store ObjectStore, logger logging.Logger) *AuditService {
	return &AuditService{base: newBase(db, m, logger), store: store}
}

// Record appends one entry for a privileged action. It never fails the
// caller: a write error is logged and dropped.
func (s *AuditService) Record(ctx context.Context, actor models.Principal, action models.AuditAction, target *models.Account, meta map[string]any, req models.RequestMeta) {
	metrics.AdminActions.WithLabelValues(string(action)).Inc()

	rec := &models.AuditRecord{
		ActorID:    actor.AccountID,
		ActorEmail: actor.Email,
		Action:     action,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		CreatedAt:  s.now(),
	}
	if target != nil {
		rec.TargetID = target.ID
		rec.Target = target.Email
	}
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			s.logger.Warn(ctx, "audit meta dropped", "action", action, "error", err)
		} else {
			rec.Meta = b
		}
	}

	if err := s.audit().Append(ctx, rec); err != nil {
		s.logger.Error(ctx, "audit append failed", "action", action, "actor", actor.Email, "error", err)
	}
}

// List returns entries newest first. Take defaults to 100 and is capped
// at 300.
func (s *AuditService) List(ctx context.Context, actor models.Principal, filter models.AuditFilter) ([]models.AuditRecord, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}

	switch {
	case filter.Take <= 0:
		filter.Take = defaultAuditTake
	case filter.Take > maxAuditTake:
		filter.Take = maxAuditTake
	}

	recs, err := s.audit().List(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "audit list failed", err)
	}
	return recs, nil
}

// Export uploads every entry matching filter as newline-delimited JSON and
// returns a short-lived download link.
func (s *AuditService) Export(ctx context.Context, actor models.Principal, filter models.AuditFilter) (*AuditExport, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", common.ErrorInternal)
	}

	filter.Take = 0
	recs, err := s.audit().List(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "audit list failed", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return nil, s.fail(ctx, "audit encode failed", err)
		}
	}

	key := storage.AuditExportKey(s.now())
	if err := s.store.Put(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return nil, s.fail(ctx, "audit upload failed", err, "key", key)
	}
	url, err := s.store.PresignGet(ctx, key, exportLinkTTL)
	if err != nil {
		return nil, s.fail(ctx, "audit presign failed", err, "key", key)
	}

	s.logger.Info(ctx, "audit exported", "actor", actor.Email, "key", key, "count", len(recs))
	return &AuditExport{Key: key, URL: url, Count: len(recs)}, nil
}
