package engine

import (
	"testing"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

func perm(resource string, verb domain.Verb, scope domain.Scope) domain.Permission {
	return domain.Permission{
		RoleSlug:     "employee",
		ResourceSlug: resource,
		Action:       domain.Action{Verb: verb, Scope: scope},
	}
}

func TestDecide_DenyByDefault(t *testing.T) {
	if Decide(nil, "task", domain.Action{Verb: domain.VerbRead, Scope: domain.ScopeOwn}) != Deny {
		t.Error("empty permission set should deny")
	}
	perms := []domain.Permission{perm("task", domain.VerbCreate, domain.ScopeOwn)}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbDelete, Scope: domain.ScopeOwn}) != Deny {
		t.Error("unlisted verb should deny")
	}
	if Decide(perms, "document", domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeOwn}) != Deny {
		t.Error("unlisted resource should deny")
	}
}

func TestDecide_AnyCoversOwn(t *testing.T) {
	perms := []domain.Permission{perm("task", domain.VerbCreate, domain.ScopeAny)}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeOwn}) != Allow {
		t.Error("create:any grant should allow create:own request")
	}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeAny}) != Allow {
		t.Error("create:any grant should allow create:any request")
	}
}

func TestDecide_OwnDoesNotCoverAny(t *testing.T) {
	perms := []domain.Permission{perm("task", domain.VerbCreate, domain.ScopeOwn)}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeAny}) != Deny {
		t.Error("create:own grant must not allow create:any request")
	}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbCreate, Scope: domain.ScopeOwn}) != Allow {
		t.Error("create:own grant should allow create:own request")
	}
}

func TestDecide_EmployeeScenario(t *testing.T) {
	// employee: task create:own, read:own.
	perms := []domain.Permission{
		perm("task", domain.VerbCreate, domain.ScopeOwn),
		perm("task", domain.VerbRead, domain.ScopeOwn),
	}
	cases := []struct {
		resource string
		action   domain.Action
		want     Decision
	}{
		{"task", domain.Action{Verb: domain.VerbRead, Scope: domain.ScopeOwn}, Allow},
		{"task", domain.Action{Verb: domain.VerbDelete, Scope: domain.ScopeOwn}, Deny},
		{"document", domain.Action{Verb: domain.VerbRead, Scope: domain.ScopeAny}, Deny},
	}
	for _, tc := range cases {
		if got := Decide(perms, tc.resource, tc.action); got != tc.want {
			t.Errorf("Decide(%s, %s) = %v, want %v", tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestDecide_InvalidActionDenies(t *testing.T) {
	perms := []domain.Permission{perm("task", domain.VerbRead, domain.ScopeAny)}
	if Decide(perms, "task", domain.Action{Verb: "export", Scope: domain.ScopeAny}) != Deny {
		t.Error("unknown verb must deny")
	}
	if Decide(perms, "task", domain.Action{Verb: domain.VerbRead, Scope: "global"}) != Deny {
		t.Error("unknown scope must deny")
	}
}
