package domain

import "testing"

func TestParseAction(t *testing.T) {
	a, err := ParseAction("read:any")
	if err != nil {
		t.Fatalf("ParseAction: %v", err)
	}
	if a.Verb != VerbRead || a.Scope != ScopeAny {
		t.Errorf("parsed %+v", a)
	}

	for _, bad := range []string{"", "read", "read:global", "export:any", "read:any:extra"} {
		if _, err := ParseAction(bad); err == nil {
			t.Errorf("ParseAction(%q) should fail", bad)
		}
	}
}

func TestActionString_RoundTrip(t *testing.T) {
	a := Action{Verb: VerbDelete, Scope: ScopeOwn}
	parsed, err := ParseAction(a.String())
	if err != nil {
		t.Fatalf("ParseAction(%q): %v", a.String(), err)
	}
	if parsed != a {
		t.Errorf("round trip: %+v != %+v", parsed, a)
	}
}

func TestSatisfies_InvalidNeverSatisfies(t *testing.T) {
	grant := Action{Verb: "export", Scope: ScopeAny}
	if grant.Satisfies(Action{Verb: VerbRead, Scope: ScopeOwn}) {
		t.Error("invalid grant must not satisfy anything")
	}
}
