package passwordresets

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	byHash map[string]models.PasswordReset
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byHash: make(map[string]models.PasswordReset)}
}

func (r *MemoryRepository) Create(_ context.Context, reset *models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[reset.TokenHash]; ok {
		return common.ErrAlreadyExists
	}
	r.byHash[reset.TokenHash] = *reset
	return nil
}

func (r *MemoryRepository) FindByHash(_ context.Context, tokenHash string) (*models.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byHash[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) DeleteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for h, p := range r.byHash {
		if p.Email == email {
			delete(r.byHash, h)
		}
	}
	return nil
}
