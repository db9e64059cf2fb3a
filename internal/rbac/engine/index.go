// Package engine resolves role grants into flat permission sets and decides
// authorization requests against them. Decisions are pure functions over a
// per-request permission slice; the only shared state is the read-mostly
// resolve cache.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

// ErrNoPermissions is returned when a role is missing, inactive, or has no
// usable grants. Callers treat it as deny-all, not as a server failure.
var ErrNoPermissions = errors.New("role has no permissions")

// RoleRepo is the minimal role repository needed by the index.
type RoleRepo interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Role, error)
}

// ResourceRepo is the minimal resource repository needed by the index.
type ResourceRepo interface {
	List(ctx context.Context) ([]*domain.Resource, error)
}

type cacheEntry struct {
	version time.Time // role UpdatedAt at resolve time
	perms   []domain.Permission
}

// Index joins role grants with resources into flattened permission tuples.
// Resolutions are cached per role, keyed on the role's UpdatedAt, so a stale
// entry is never served after a role write; resource writes must call
// InvalidateAll.
type Index struct {
	roles     RoleRepo
	resources ResourceRepo

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewIndex returns a permission index over the given repositories.
func NewIndex(roles RoleRepo, resources ResourceRepo) *Index {
	return &Index{
		roles:     roles,
		resources: resources,
		cache:     make(map[string]cacheEntry),
	}
}

// Resolve returns the flattened (resource, action) permissions of a role.
// Deterministic given role and resource state. Returns ErrNoPermissions for
// a missing, inactive, or grantless role.
func (ix *Index) Resolve(ctx context.Context, roleSlug string) ([]domain.Permission, error) {
	role, err := ix.roles.GetBySlug(ctx, roleSlug)
	if err != nil {
		return nil, err
	}
	if role == nil || role.Status != domain.RoleStatusActive || len(role.Grants) == 0 {
		return nil, ErrNoPermissions
	}

	ix.mu.RLock()
	entry, ok := ix.cache[roleSlug]
	ix.mu.RUnlock()
	if ok && entry.version.Equal(role.UpdatedAt) {
		return append([]domain.Permission{}, entry.perms...), nil
	}

	resources, err := ix.resources.List(ctx)
	if err != nil {
		return nil, err
	}
	slugByID := make(map[string]string, len(resources))
	for _, res := range resources {
		slugByID[res.ID] = res.Slug
	}

	var perms []domain.Permission
	for _, grant := range role.Grants {
		resourceSlug, ok := slugByID[grant.ResourceID]
		if !ok {
			// Grant points at a deleted resource; it can never match a
			// request, so it contributes nothing.
			continue
		}
		for _, action := range grant.Actions {
			if !action.Valid() {
				continue
			}
			perms = append(perms, domain.Permission{
				RoleSlug:     role.Slug,
				ResourceSlug: resourceSlug,
				Action:       action,
			})
		}
	}
	if len(perms) == 0 {
		return nil, ErrNoPermissions
	}

	ix.mu.Lock()
	ix.cache[roleSlug] = cacheEntry{version: role.UpdatedAt, perms: perms}
	ix.mu.Unlock()
	return append([]domain.Permission{}, perms...), nil
}

// Invalidate drops the cached resolution for one role. Call after a role write.
func (ix *Index) Invalidate(roleSlug string) {
	ix.mu.Lock()
	delete(ix.cache, roleSlug)
	ix.mu.Unlock()
}

// InvalidateAll drops every cached resolution. Call after a resource write,
// which can change the slug any number of grants flatten to.
func (ix *Index) InvalidateAll() {
	ix.mu.Lock()
	ix.cache = make(map[string]cacheEntry)
	ix.mu.Unlock()
}
