package role

import (
	"context"
	"testing"

	"tadweer/internal/domain"
	"tadweer/internal/identity"
)

func signedIn(role string) *identity.Static {
	meta := map[string]string{}
	if role != "" {
		meta[identity.MetadataRoleKey] = role
	}
	return &identity.Static{User: identity.User{
		ID:         "user-1",
		IsSignedIn: true,
		IsLoaded:   true,
		Metadata:   meta,
	}}
}

func TestRefreshResolvesRole(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(signedIn("company"), nil)

	s := r.Refresh(ctx)
	if !s.Loaded || !s.SignedIn || s.Role != domain.RoleCompany {
		t.Fatalf("state = %+v", s)
	}
	if r.Role() != domain.RoleCompany {
		t.Fatalf("cached role = %q", r.Role())
	}
}

func TestRefreshSignedOutHasNoRole(t *testing.T) {
	ctx := context.Background()
	p := &identity.Static{User: identity.User{IsLoaded: true, Metadata: map[string]string{
		identity.MetadataRoleKey: "customer",
	}}}
	r := NewResolver(p, nil)

	if s := r.Refresh(ctx); s.Role != domain.RoleUnset {
		t.Fatalf("signed-out role = %q", s.Role)
	}
}

func TestRefreshUnknownRoleIsUnset(t *testing.T) {
	r := NewResolver(signedIn("superadmin"), nil)
	if s := r.Refresh(context.Background()); s.Role != domain.RoleUnset {
		t.Fatalf("role = %q, want unset", s.Role)
	}
}

func TestUpdateRoleWritesThrough(t *testing.T) {
	ctx := context.Background()
	p := signedIn("")
	r := NewResolver(p, nil)
	r.Refresh(ctx)

	if !r.UpdateRole(ctx, domain.RoleCustomer) {
		t.Fatal("update rejected")
	}
	if r.Role() != domain.RoleCustomer {
		t.Fatalf("cached role = %q", r.Role())
	}
	u, _ := p.CurrentUser(ctx)
	if u.Metadata[identity.MetadataRoleKey] != domain.RoleCustomer {
		t.Fatalf("provider metadata = %v", u.Metadata)
	}
}

func TestUpdateRoleRejectsUnknown(t *testing.T) {
	r := NewResolver(signedIn(""), nil)
	if r.UpdateRole(context.Background(), "superadmin") {
		t.Fatal("unknown role accepted")
	}
}

func TestUpdateRoleRequiresSignIn(t *testing.T) {
	p := &identity.Static{User: identity.User{IsLoaded: true}}
	r := NewResolver(p, nil)
	if r.UpdateRole(context.Background(), domain.RoleCustomer) {
		t.Fatal("signed-out update accepted")
	}
}

func TestUpdateRoleReportsWriteFailure(t *testing.T) {
	ctx := context.Background()
	p := signedIn("")
	p.FailWrites = true
	r := NewResolver(p, nil)
	r.Refresh(ctx)

	if r.UpdateRole(ctx, domain.RoleCompany) {
		t.Fatal("failed write reported success")
	}
	// optimistic cache still reflects the attempt, next refresh reconciles
	r.Refresh(ctx)
	if r.Role() != domain.RoleUnset {
		t.Fatalf("role after reconcile = %q", r.Role())
	}
}
