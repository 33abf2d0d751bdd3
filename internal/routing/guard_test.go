package routing

import (
	"testing"

	"tadweer/internal/domain"
)

func TestDecide(t *testing.T) {
	s := DefaultSections()
	cases := []struct {
		name   string
		state  State
		action Action
		target string
	}{
		{"not loaded suspends", State{Path: "/dashboard"}, Suspend, ""},
		{"signed out redirects to sign-in", State{Loaded: true, Path: "/dashboard"}, Redirect, "/sign-in"},
		{"signed out already at sign-in", State{Loaded: true, Path: "/sign-in"}, Allow, ""},
		{"no role redirects to role selection", State{Loaded: true, SignedIn: true, Path: "/dashboard"}, Redirect, "/role-selection"},
		{"no role already at role selection", State{Loaded: true, SignedIn: true, Path: "/role-selection"}, Allow, ""},
		{"customer inside own section", State{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/dashboard"}, Allow, ""},
		{"customer deep inside own section", State{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/dashboard/rewards"}, Allow, ""},
		{"customer elsewhere redirects home", State{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/company/orders"}, Redirect, "/dashboard"},
		{"company inside own section", State{Loaded: true, SignedIn: true, Role: domain.RoleCompany, Path: "/company/analytics"}, Allow, ""},
		{"company elsewhere redirects home", State{Loaded: true, SignedIn: true, Role: domain.RoleCompany, Path: "/dashboard"}, Redirect, "/company/dashboard"},
		{"role set leaving role selection", State{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/role-selection"}, Redirect, "/dashboard"},
		{"admin has no section", State{Loaded: true, SignedIn: true, Role: domain.RoleAdmin, Path: "/dashboard"}, Redirect, "/role-selection"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := s.Decide(tc.state)
			if d.Action != tc.action {
				t.Fatalf("action: got %s, want %s", d.Action, tc.action)
			}
			if d.Target != tc.target {
				t.Fatalf("target: got %q, want %q", d.Target, tc.target)
			}
		})
	}
}

func TestDecideIdempotent(t *testing.T) {
	s := DefaultSections()
	states := []State{
		{Loaded: true, Path: "/dashboard"},
		{Loaded: true, SignedIn: true, Path: "/company"},
		{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/company/orders"},
		{Loaded: true, SignedIn: true, Role: domain.RoleCompany, Path: "/"},
	}
	for _, st := range states {
		d := s.Decide(st)
		for hops := 0; d.Action == Redirect; hops++ {
			if hops > 3 {
				t.Fatalf("redirect loop starting from %+v", st)
			}
			st.Path = d.Target
			d = s.Decide(st)
		}
		if d.Action != Allow && d.Action != Suspend {
			t.Fatalf("expected terminal allow, got %s", d.Action)
		}
	}
}

func TestGuardSubtree(t *testing.T) {
	s := DefaultSections()
	// mismatched role goes to its own dashboard, never the forbidden subtree
	d := s.GuardSubtree(State{Loaded: true, SignedIn: true, Role: domain.RoleCustomer, Path: "/company/orders"}, domain.RoleCompany)
	if d.Action != Redirect || d.Target != "/dashboard" {
		t.Fatalf("got %+v", d)
	}
	d = s.GuardSubtree(State{Loaded: true, SignedIn: true, Role: domain.RoleCompany, Path: "/company/orders"}, domain.RoleCompany)
	if d.Action != Allow {
		t.Fatalf("expected allow, got %+v", d)
	}
	d = s.GuardSubtree(State{Loaded: false, Path: "/company"}, domain.RoleCompany)
	if d.Action != Suspend {
		t.Fatalf("expected suspend, got %+v", d)
	}
}
