// Package role derives the session role from the identity provider and
// allows the one onboarding write-back.
package role

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tadweer/internal/domain"
	"tadweer/internal/identity"
)

// State is the resolved identity snapshot the route guard consumes.
type State struct {
	Loaded   bool
	SignedIn bool
	Role     string
}

type Resolver struct {
	provider identity.Provider
	log      *zap.Logger

	mu    sync.Mutex
	state State
}

func NewResolver(p identity.Provider, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{provider: p, log: log}
}

// Refresh recomputes the cached state from the provider. A provider read
// failure leaves the state not-loaded so the guard suspends rather than
// misroutes.
func (r *Resolver) Refresh(ctx context.Context) State {
	u, err := r.provider.CurrentUser(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.log.Warn("identity read failed", zap.Error(err))
		r.state = State{}
		return r.state
	}
	s := State{Loaded: u.IsLoaded, SignedIn: u.IsSignedIn}
	if u.IsSignedIn {
		s.Role = domain.ParseRole(u.Metadata[identity.MetadataRoleKey])
	}
	r.state = s
	return s
}

// State returns the last resolved snapshot without touching the provider.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Role returns the cached role; unset while signed out or before loading.
func (r *Resolver) Role() string {
	return r.State().Role
}

// UpdateRole writes the role into the provider's profile metadata. The local
// cache updates optimistically; a provider failure is logged and reported as
// false with no retry.
func (r *Resolver) UpdateRole(ctx context.Context, newRole string) bool {
	if domain.ParseRole(newRole) == domain.RoleUnset {
		r.log.Warn("rejecting unknown role", zap.String("role", newRole))
		return false
	}
	u, err := r.provider.CurrentUser(ctx)
	if err != nil || !u.IsSignedIn {
		r.log.Warn("role update without signed-in user", zap.Error(err))
		return false
	}
	r.mu.Lock()
	r.state.Role = newRole
	r.mu.Unlock()
	if err := r.provider.UpdateMetadata(ctx, u.ID, map[string]string{identity.MetadataRoleKey: newRole}); err != nil {
		r.log.Warn("role write failed", zap.String("role", newRole), zap.Error(err))
		return false
	}
	return true
}
