package domain

import (
	"errors"
	"time"
)

// Resource is a named protectable noun, e.g. "task" or "document". Grants
// reference resources by id; the permission index joins them back to slugs.
type Resource struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the resource for persistence.
func (r *Resource) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Slug == "" {
		return errors.New("slug is required")
	}
	return nil
}

// Permission is one flattened (role, resource, action) tuple produced by the
// permission index. Derived, never stored.
type Permission struct {
	RoleSlug     string
	ResourceSlug string
	Action       Action
}
