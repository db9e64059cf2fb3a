package domain

import (
	"errors"
	"time"
)

// Role names a set of grants. Grants are embedded and owned by the role;
// each grant references a resource by id.
type Role struct {
	ID        string
	Name      string
	Slug      string
	Status    RoleStatus
	Grants    []Grant
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RoleStatus string

const (
	RoleStatusActive   RoleStatus = "active"
	RoleStatusInactive RoleStatus = "inactive"
)

// Grant attaches a set of actions on one resource to a role.
type Grant struct {
	ResourceID string   `json:"resourceId"`
	Actions    []Action `json:"actions"`
}

// Validate validates the role for persistence. Returns an error describing
// the first validation failure.
func (r *Role) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Slug == "" {
		return errors.New("slug is required")
	}
	if r.Status == "" {
		r.Status = RoleStatusActive
	}
	for _, g := range r.Grants {
		if g.ResourceID == "" {
			return errors.New("grant resource id is required")
		}
		for _, a := range g.Actions {
			if !a.Valid() {
				return errors.New("grant action is invalid")
			}
		}
	}
	return nil
}
