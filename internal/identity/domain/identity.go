package domain

import (
	"errors"
	"time"
)

// Identity is the authenticated principal: one user account with local
// credentials and a single role. The role slug is what the permission index
// resolves grants for.
type Identity struct {
	ID           string
	Email        string
	Username     string
	Name         string
	PasswordHash string
	RoleSlug     string
	Status       IdentityStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type IdentityStatus string

const (
	IdentityStatusActive   IdentityStatus = "active"
	IdentityStatusDisabled IdentityStatus = "disabled"
)

// Validate validates the identity for persistence. Returns an error
// describing the first validation failure.
func (i *Identity) Validate() error {
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.Username == "" {
		return errors.New("username is required")
	}
	if i.Status == "" {
		i.Status = IdentityStatusActive
	}
	return nil
}
