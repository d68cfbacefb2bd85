package loginattempts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

// DefaultRetention is how long the in-memory ledger keeps attempts unless
// told otherwise. It must be at least the rate-limit window.
const DefaultRetention = 24 * time.Hour

type MemoryRepository struct {
	mu        sync.Mutex
	attempts  []models.LoginAttempt
	retention time.Duration
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{retention: DefaultRetention}
}

// SetRetention changes how far back attempts are kept. Non-positive values
// are ignored.
func (r *MemoryRepository) SetRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retention = d
}

// Record appends the attempt and drops those older than the retention
// relative to at.
func (r *MemoryRepository) Record(_ context.Context, email, ip string, ok bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := at.Add(-r.retention)
	kept := r.attempts[:0]
	for _, a := range r.attempts {
		if !a.CreatedAt.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	r.attempts = append(kept, models.LoginAttempt{Email: email, IP: ip, OK: ok, CreatedAt: at})
	return nil
}

func (r *MemoryRepository) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

func (r *MemoryRepository) CountFailuresByEmail(_ context.Context, email string, since time.Time) (int, error) {
	return r.count(since, func(a models.LoginAttempt) bool { return a.Email == email }), nil
}

func (r *MemoryRepository) CountFailuresByIP(_ context.Context, ip string, since time.Time) (int, error) {
	return r.count(since, func(a models.LoginAttempt) bool { return a.IP == ip }), nil
}

func (r *MemoryRepository) count(since time.Time, match func(models.LoginAttempt) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, a := range r.attempts {
		if !a.OK && !a.CreatedAt.Before(since) && match(a) {
			n++
		}
	}
	return n
}
