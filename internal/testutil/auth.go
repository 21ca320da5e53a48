package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ide-go/internal/auth"
	"ide-go/internal/ide"
)

// StubAuth is an ide.Auth with an editable membership table. The caller is
// taken from the context, as set by AsUser.
type StubAuth struct {
	mu     sync.Mutex
	teams  map[string][]string
	writes map[string][]string
}

var _ ide.Auth = (*StubAuth)(nil)

func NewStubAuth() *StubAuth {
	return &StubAuth{teams: map[string][]string{}, writes: map[string][]string{}}
}

// Grant adds user to team, with write access when write is set.
func (a *StubAuth) Grant(user, team string, write bool) *StubAuth {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teams[user] = append(a.teams[user], team)
	if write {
		a.writes[user] = append(a.writes[user], team)
	}
	return a
}

// AsUser returns a context authenticated as name.
func AsUser(ctx context.Context, name string) context.Context {
	return auth.WithIdentity(ctx, &ide.Identity{
		Name:        name,
		DisplayName: name,
		Email:       name + "@example.com",
	})
}

func (a *StubAuth) CurrentUser(ctx context.Context) (*ide.Identity, error) {
	return auth.IdentityFromContext(ctx), nil
}

func (a *StubAuth) CurrentUserTeams(ctx context.Context) ([]string, error) {
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.teams[id.Name]), nil
}

func (a *StubAuth) EnsureWrite(ctx context.Context, team string) error {
	id := auth.IdentityFromContext(ctx)
	if id == nil {
		return fmt.Errorf("%w: not authenticated", ide.ErrPermission)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.writes[id.Name], team) {
		return fmt.Errorf("%w: %s may not write to %s", ide.ErrPermission, id.Name, team)
	}
	return nil
}
