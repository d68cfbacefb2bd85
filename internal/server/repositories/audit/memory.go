package audit

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	records []models.AuditRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(_ context.Context, rec *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec.ID = r.nextID
	r.records = append(r.records, *rec)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, filter models.AuditFilter) ([]models.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))

	var result []models.AuditRecord
	for _, rec := range r.records {
		if filter.Action != "" && string(rec.Action) != filter.Action {
			continue
		}
		if !filter.Since.IsZero() && rec.CreatedAt.Before(filter.Since) {
			continue
		}
		if q != "" && !matchesQuery(rec, q) {
			continue
		}
		result = append(result, rec)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Take > 0 && len(result) > filter.Take {
		result = result[:filter.Take]
	}
	return result, nil
}

func matchesQuery(rec models.AuditRecord, q string) bool {
	for _, field := range []string{rec.ActorEmail, rec.Target, string(rec.Action), string(rec.Meta)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
