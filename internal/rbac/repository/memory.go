package repository

import (
	"context"
	"sync"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

// MemoryRoleRepository is an in-memory role store for tests and local runs.
type MemoryRoleRepository struct {
	mu     sync.Mutex
	bySlug map[string]*domain.Role
}

// NewMemoryRoleRepository returns an empty in-memory role repository.
func NewMemoryRoleRepository() *MemoryRoleRepository {
	return &MemoryRoleRepository{bySlug: make(map[string]*domain.Role)}
}

func (r *MemoryRoleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.bySlug[slug]
	if !ok {
		return nil, nil
	}
	cp := *role
	cp.Grants = append([]domain.Grant{}, role.Grants...)
	return &cp, nil
}

func (r *MemoryRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Role, 0, len(r.bySlug))
	for _, role := range r.bySlug {
		cp := *role
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.bySlug[cp.Slug] = &cp
	return nil
}

func (r *MemoryRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *role
	r.bySlug[cp.Slug] = &cp
	return nil
}

// MemoryResourceRepository is an in-memory resource store for tests and local runs.
type MemoryResourceRepository struct {
	mu     sync.Mutex
	bySlug map[string]*domain.Resource
}

// NewMemoryResourceRepository returns an empty in-memory resource repository.
func NewMemoryResourceRepository() *MemoryResourceRepository {
	return &MemoryResourceRepository{bySlug: make(map[string]*domain.Resource)}
}

func (r *MemoryResourceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.bySlug[slug]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *MemoryResourceRepository) List(ctx context.Context) ([]*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Resource, 0, len(r.bySlug))
	for _, res := range r.bySlug {
		cp := *res
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.bySlug[cp.Slug] = &cp
	return nil
}
