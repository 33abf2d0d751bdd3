// Package routing decides where a request for a page path should land given
// the resolved identity state. Decisions are pure functions of their inputs,
// so repeated evaluation with unchanged inputs can never loop.
package routing

import (
	"strings"

	"tadweer/internal/domain"
)

type Action int

const (
	// Suspend renders nothing; identity resolution has not finished.
	Suspend Action = iota
	Allow
	Redirect
)

func (a Action) String() string {
	switch a {
	case Suspend:
		return "suspend"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Action Action
	Target string
}

// State is the guard input: identity snapshot plus the requested path.
type State struct {
	Loaded   bool
	SignedIn bool
	Role     string
	Path     string
}

// Sections names the navigation graph's section roots.
type Sections struct {
	SignIn        string
	RoleSelection string
	Customer      string
	CustomerRoot  string
	Company       string
	CompanyRoot   string
}

// DefaultSections mirrors the dashboard's navigation graph.
func DefaultSections() Sections {
	return Sections{
		SignIn:        "/sign-in",
		RoleSelection: "/role-selection",
		Customer:      "/dashboard",
		CustomerRoot:  "/dashboard",
		Company:       "/company",
		CompanyRoot:   "/company/dashboard",
	}
}

// DashboardRoot is the canonical landing path for a role; roles without a
// section land on role selection.
func (s Sections) DashboardRoot(role string) string {
	switch role {
	case domain.RoleCustomer:
		return s.CustomerRoot
	case domain.RoleCompany:
		return s.CompanyRoot
	}
	return s.RoleSelection
}

func (s Sections) sectionPrefix(role string) string {
	switch role {
	case domain.RoleCustomer:
		return s.Customer
	case domain.RoleCompany:
		return s.Company
	}
	return ""
}

func inSection(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func redirectTo(path, target string) Decision {
	if path == target {
		return Decision{Action: Allow}
	}
	return Decision{Action: Redirect, Target: target}
}

// Decide evaluates the routing rules in order. It is idempotent: following
// the returned redirect and re-evaluating always yields Allow.
func (s Sections) Decide(st State) Decision {
	if !st.Loaded {
		return Decision{Action: Suspend}
	}
	if !st.SignedIn {
		return redirectTo(st.Path, s.SignIn)
	}
	if st.Role == domain.RoleUnset {
		return redirectTo(st.Path, s.RoleSelection)
	}
	if inSection(st.Path, s.sectionPrefix(st.Role)) {
		return Decision{Action: Allow}
	}
	return redirectTo(st.Path, s.DashboardRoot(st.Role))
}

// GuardSubtree protects a role-gated subtree: a mismatched role is sent to
// its own dashboard root, never to the forbidden subtree or an error page.
func (s Sections) GuardSubtree(st State, allowed ...string) Decision {
	if !st.Loaded {
		return Decision{Action: Suspend}
	}
	if !st.SignedIn {
		return redirectTo(st.Path, s.SignIn)
	}
	if st.Role == domain.RoleUnset {
		return redirectTo(st.Path, s.RoleSelection)
	}
	for _, role := range allowed {
		if st.Role == role {
			return Decision{Action: Allow}
		}
	}
	return redirectTo(st.Path, s.DashboardRoot(st.Role))
}
