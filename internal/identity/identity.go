// Package identity is the boundary to the identity provider. The core only
// ever sees User values and the two Provider calls; sign-in itself happens
// elsewhere.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"tadweer/internal/storage"
)

// MetadataRoleKey is the profile-metadata field the role claim lives under.
const MetadataRoleKey = "role"

type User struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	IsSignedIn bool              `json:"is_signed_in"`
	IsLoaded   bool              `json:"is_loaded"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Provider exposes the current user and a metadata write-back.
type Provider interface {
	CurrentUser(ctx context.Context) (User, error)
	UpdateMetadata(ctx context.Context, userID string, fields map[string]string) error
}

// Static is an in-memory provider for tests and wiring without a session.
type Static struct {
	mu         sync.Mutex
	User       User
	FailWrites bool
}

func (s *Static) CurrentUser(context.Context) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.User, nil
}

func (s *Static) UpdateMetadata(_ context.Context, userID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errors.New("metadata write rejected")
	}
	if s.User.ID != userID {
		return errors.New("unknown user")
	}
	if s.User.Metadata == nil {
		s.User.Metadata = map[string]string{}
	}
	for k, v := range fields {
		s.User.Metadata[k] = v
	}
	return nil
}

const profileKey = "tadweer_profile"

// KVProfile keeps the local session profile in durable storage, the same
// store the orders snapshot uses. Absent key means signed out.
type KVProfile struct {
	KV storage.KV
}

func (p KVProfile) CurrentUser(ctx context.Context) (User, error) {
	raw, err := p.KV.ReadKey(ctx, profileKey)
	if errors.Is(err, storage.ErrNotFound) {
		return User{IsLoaded: true}, nil
	}
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, err
	}
	u.IsLoaded = true
	u.IsSignedIn = u.ID != ""
	return u, nil
}

func (p KVProfile) UpdateMetadata(ctx context.Context, userID string, fields map[string]string) error {
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !u.IsSignedIn || u.ID != userID {
		return errors.New("no signed-in user to update")
	}
	if u.Metadata == nil {
		u.Metadata = map[string]string{}
	}
	for k, v := range fields {
		u.Metadata[k] = v
	}
	return p.save(ctx, u)
}

// SignIn records the local profile; used by the CLI session commands.
func (p KVProfile) SignIn(ctx context.Context, id, name string) error {
	return p.save(ctx, User{ID: id, Name: name, IsSignedIn: true, IsLoaded: true})
}

// SignOut erases the local profile.
func (p KVProfile) SignOut(ctx context.Context) error {
	return p.KV.DeleteKey(ctx, profileKey)
}

func (p KVProfile) save(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.KV.WriteKey(ctx, profileKey, string(data))
}
