// Package auth answers who the caller is and which teams they may read and
// write, from the static user table in the config file.
package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"ide-go/internal/config"
	"ide-go/internal/ide"
)

type user struct {
	identity     ide.Identity
	passwordHash []byte
	teams        []string
	writeTeams   []string
}

// Static is an ide.Auth backed by a user table. The table can be swapped at
// runtime with Replace; requests already authenticated keep their identity.
type Static struct {
	mu    sync.RWMutex
	users map[string]*user
}

var _ ide.Auth = (*Static)(nil)

// NewStatic builds the user table from config entries.
func NewStatic(users []config.UserConfig) *Static {
	s := &Static{}
	s.Replace(users)
	return s
}

// Replace swaps in a new user table.
func (s *Static) Replace(users []config.UserConfig) {
	table := make(map[string]*user, len(users))
	for _, u := range users {
		name := strings.ToLower(u.Name)
		email := u.Email
		if email == "" {
			email = name + "@localhost"
		}
		table[name] = &user{
			identity: ide.Identity{
				Name:        name,
				DisplayName: u.DisplayName,
				Email:       email,
			},
			passwordHash: []byte(u.PasswordHash),
			teams:        slices.Clone(u.Teams),
			writeTeams:   slices.Clone(u.WriteTeams),
		}
	}

	s.mu.Lock()
	s.users = table
	s.mu.Unlock()
}

func (s *Static) lookup(name string) *user {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[strings.ToLower(name)]
}

// Authenticate checks a name and password against the table.
func (s *Static) Authenticate(name, password string) (*ide.Identity, error) {
	u := s.lookup(name)
	if u == nil {
		return nil, fmt.Errorf("%w: unknown user %s", ide.ErrPermission, name)
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: bad password for %s", ide.ErrPermission, name)
	}
	id := u.identity
	return &id, nil
}

// CurrentUser returns the identity stored in ctx, or nil.
func (s *Static) CurrentUser(ctx context.Context) (*ide.Identity, error) {
	return IdentityFromContext(ctx), nil
}

// CurrentUserTeams returns the caller's teams as currently configured.
func (s *Static) CurrentUserTeams(ctx context.Context) ([]string, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, nil
	}
	u := s.lookup(id.Name)
	if u == nil {
		return nil, nil
	}
	return slices.Clone(u.teams), nil
}

// EnsureWrite fails with ide.ErrPermission unless the caller may write to team.
func (s *Static) EnsureWrite(ctx context.Context, team string) error {
	id := IdentityFromContext(ctx)
	if id == nil {
		return fmt.Errorf("%w: not authenticated", ide.ErrPermission)
	}
	u := s.lookup(id.Name)
	if u == nil || !slices.Contains(u.writeTeams, team) {
		return fmt.Errorf("%w: %s may not write to team %s", ide.ErrPermission, id.Name, team)
	}
	return nil
}

// HashPassword returns the bcrypt hash stored in the config file.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
