package engine

import "github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Allowed reports whether the decision permits the request.
func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Decide evaluates whether the permission set satisfies the required action
// on the resource. Deny by default: no matching grant at a satisfying scope
// means Deny. Pure function, no shared state; callers resolve the permission
// set per request.
func Decide(perms []domain.Permission, resourceSlug string, required domain.Action) Decision {
	if !required.Valid() {
		return Deny
	}
	for _, p := range perms {
		if p.ResourceSlug != resourceSlug {
			continue
		}
		if p.Action.Satisfies(required) {
			return Allow
		}
	}
	return Deny
}
