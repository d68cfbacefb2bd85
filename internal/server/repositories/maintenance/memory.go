package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	cfg    models.MaintenanceConfig
	notice models.SystemNotice
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Get(_ context.Context) (*models.MaintenanceConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cfg
	return &c, nil
}

// GetForUpdate and GetForShare cannot lock across calls. In memory mode
// the repository manager serializes transactions instead.
func (r *MemoryRepository) GetForUpdate(ctx context.Context) (*models.MaintenanceConfig, error) {
	return r.Get(ctx)
}

func (r *MemoryRepository) GetForShare(ctx context.Context) (*models.MaintenanceConfig, error) {
	return r.Get(ctx)
}

func (r *MemoryRepository) Upsert(_ context.Context, active bool, message string, at time.Time) (*models.MaintenanceConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = models.MaintenanceConfig{Active: active, Message: message, UpdatedAt: at}
	c := r.cfg
	return &c, nil
}

func (r *MemoryRepository) GetNotice(_ context.Context) (*models.SystemNotice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.notice
	return &n, nil
}

func (r *MemoryRepository) SetNotice(_ context.Context, active bool, text string, at time.Time) (*models.SystemNotice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notice = models.SystemNotice{Active: active, Text: text, UpdatedAt: at}
	n := r.notice
	return &n, nil
}
