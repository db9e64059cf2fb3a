package domain

import (
	"fmt"
	"strings"
)

// Verb is the operation half of an action. Closed set; anything else is
// rejected at the boundary by ParseAction.
type Verb string

const (
	VerbCreate Verb = "create"
	VerbRead   Verb = "read"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Scope says whether an action applies only to resources owned by the
// requester (own) or to all resources of that type (any).
type Scope string

const (
	ScopeOwn Scope = "own"
	ScopeAny Scope = "any"
)

// Action is a verb at a scope, e.g. read:any. It replaces the runtime
// "verb:scope" string dispatch of earlier designs with a closed variant, so
// an unrecognized action cannot reach the authorizer.
type Action struct {
	Verb  Verb  `json:"verb"`
	Scope Scope `json:"scope"`
}

// Valid reports whether both verb and scope are members of their closed sets.
func (a Action) Valid() bool {
	switch a.Verb {
	case VerbCreate, VerbRead, VerbUpdate, VerbDelete:
	default:
		return false
	}
	switch a.Scope {
	case ScopeOwn, ScopeAny:
	default:
		return false
	}
	return true
}

// Satisfies reports whether this granted action covers the required one.
// A grant at scope any covers the same verb at either scope; a grant at
// scope own covers only a request at scope own. Own never implies any.
func (a Action) Satisfies(required Action) bool {
	if !a.Valid() || !required.Valid() {
		return false
	}
	if a.Verb != required.Verb {
		return false
	}
	return a.Scope == ScopeAny || required.Scope == ScopeOwn
}

// String renders the action in verb:scope form.
func (a Action) String() string {
	return string(a.Verb) + ":" + string(a.Scope)
}

// ParseAction parses a verb:scope string (e.g. "read:any") into an Action.
// This is the only place wire strings become actions.
func ParseAction(s string) (Action, error) {
	verb, scope, ok := strings.Cut(s, ":")
	if !ok {
		return Action{}, fmt.Errorf("malformed action %q", s)
	}
	a := Action{Verb: Verb(verb), Scope: Scope(scope)}
	if !a.Valid() {
		return Action{}, fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}
