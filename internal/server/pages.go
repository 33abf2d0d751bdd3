package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tadweer/internal/domain"
	"tadweer/internal/identity"
	"tadweer/internal/routing"
)

// registerPages wires the dashboard navigation graph. Every page path runs
// the route guard first; a redirect decision answers 302 before anything
// renders.
func registerPages(router chi.Router, cfg Config) {
	sections := cfg.App.Sections()

	// Public onboarding pages route through Decide; role-gated subtrees
	// through GuardSubtree, so a mismatched role lands on its own root.
	page := func(title string, roles ...string) http.HandlerFunc {
		return guardedPage(sections, roles, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, "<!doctype html><title>%s</title><h1>%s</h1>", title, title)
		})
	}

	router.Get(sections.SignIn, page("Sign in"))
	router.Get(sections.RoleSelection, page("Choose your role"))
	router.Get(sections.Customer, page("Customer dashboard", domain.RoleCustomer))
	if sections.Customer != sections.CustomerRoot {
		router.Get(sections.CustomerRoot, page("Customer dashboard", domain.RoleCustomer))
	}
	router.Get(sections.Customer+"/*", page("Customer dashboard", domain.RoleCustomer))
	router.Get(sections.Company, page("Company dashboard", domain.RoleCompany))
	router.Get(sections.Company+"/*", page("Company dashboard", domain.RoleCompany))
}

// guardedPage evaluates the guard for the request path. Suspend answers 204:
// identity is still resolving and nothing may render yet.
func guardedPage(sections routing.Sections, roles []string, render http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFromContext(r.Context())
		st := guardState(u, r.URL.Path)
		var d routing.Decision
		if len(roles) > 0 {
			d = sections.GuardSubtree(st, roles...)
		} else {
			d = sections.Decide(st)
		}
		switch d.Action {
		case routing.Suspend:
			w.WriteHeader(http.StatusNoContent)
		case routing.Redirect:
			http.Redirect(w, r, d.Target, http.StatusFound)
		default:
			render(w, r)
		}
	}
}

func guardState(u identity.User, path string) routing.State {
	st := routing.State{Loaded: u.IsLoaded, SignedIn: u.IsSignedIn, Path: path}
	if u.IsSignedIn {
		st.Role = domain.ParseRole(u.Metadata[identity.MetadataRoleKey])
	}
	return st
}
