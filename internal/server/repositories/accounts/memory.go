package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. All epoch changes
// happen under the mutex, so increments never interleave.
type MemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.Account
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.SessionEpoch = 0
	stored := *account
	r.byID[account.ID] = &stored
	r.byEmail[account.Email] = account.ID
	return account, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Account, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) RecordLogin(_ context.Context, id string, ip string, at time.Time) (int64, error) {
	return r.mutate(id, func(a *models.Account) {
		a.SessionEpoch++
		t := at
		a.LastLoginAt = &t
		a.LastLoginIP = ip
	})
}

func (r *MemoryRepository) IncrementEpoch(_ context.Context, id string) (int64, error) {
	return r.mutate(id, func(a *models.Account) {
		a.SessionEpoch++
	})
}

func (r *MemoryRepository) SetBlocked(_ context.Context, id string, blocked bool) (int64, error) {
	return r.mutate(id, func(a *models.Account) {
		a.Blocked = blocked
		a.SessionEpoch++
	})
}

func (r *MemoryRepository) SetPassword(_ context.Context, id string, passwordHash string) (int64, error) {
	return r.mutate(id, func(a *models.Account) {
		a.PasswordHash = passwordHash
		a.SessionEpoch++
	})
}

func (r *MemoryRepository) SetRole(_ context.Context, id string, role models.Role) error {
	_, err := r.mutate(id, func(a *models.Account) {
		a.Role = role
	})
	return err
}

func (r *MemoryRepository) KickAllByRole(_ context.Context, role models.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, a := range r.byID {
		if a.Role == role {
			a.SessionEpoch++
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) mutate(id string, fn func(a *models.Account)) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	fn(a)
	return a.SessionEpoch, nil
}
