package repository

import (
	"context"
	"sync"

	"github.com/iconic-inc/iconic-erp-sub000/internal/identity/domain"
)

// MemoryRepository is an in-memory identity store for tests and local runs.
type MemoryRepository struct {
	mu   sync.Mutex
	byID map[string]*domain.Identity
}

// NewMemoryRepository returns an empty in-memory identity repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.Identity)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.byID {
		if i.Username == username {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.byID {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, i *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	r.byID[cp.ID] = &cp
	return nil
}
