package app

import (
	"context"
	"fmt"
	"slices"

	"ide-go/internal/auth"
	"ide-go/internal/ide"
)

// Operator is the ide.Auth used by administrative CLI commands. It acts as
// the system identity with write access to the given teams only, so those
// commands run through the same dispatch and audit path as HTTP requests.
type Operator struct {
	identity ide.Identity
	teams    []string
}

var _ ide.Auth = (*Operator)(nil)

// NewOperator creates an Operator for the system author.
func NewOperator(system ide.Author, teams ...string) *Operator {
	return &Operator{
		identity: ide.Identity{Name: system.Name, Email: system.Email},
		teams:    slices.Clone(teams),
	}
}

// Context returns ctx authenticated as the operator.
func (o *Operator) Context(ctx context.Context) context.Context {
	id := o.identity
	return auth.WithIdentity(ctx, &id)
}

func (o *Operator) CurrentUser(ctx context.Context) (*ide.Identity, error) {
	return auth.IdentityFromContext(ctx), nil
}

func (o *Operator) CurrentUserTeams(ctx context.Context) ([]string, error) {
	if auth.IdentityFromContext(ctx) == nil {
		return nil, nil
	}
	return slices.Clone(o.teams), nil
}

func (o *Operator) EnsureWrite(ctx context.Context, team string) error {
	if auth.IdentityFromContext(ctx) == nil || !slices.Contains(o.teams, team) {
		return fmt.Errorf("%w: operator may not write to %s", ide.ErrPermission, team)
	}
	return nil
}
