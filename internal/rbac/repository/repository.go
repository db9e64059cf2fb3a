package repository

import (
	"context"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

// RoleRepository defines persistence for roles.
type RoleRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Create(ctx context.Context, r *domain.Role) error
	Update(ctx context.Context, r *domain.Role) error
}

// ResourceRepository defines persistence for resources.
type ResourceRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Resource, error)
	List(ctx context.Context) ([]*domain.Resource, error)
	Create(ctx context.Context, r *domain.Resource) error
}
