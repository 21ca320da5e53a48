package ide

import "context"

// Auth answers identity and team-membership questions for the caller carried
// in ctx. It is consulted before any repository is touched.
type Auth interface {
	// CurrentUser returns the caller, or nil if the request is anonymous.
	CurrentUser(ctx context.Context) (*Identity, error)

	// CurrentUserTeams returns the teams the caller belongs to.
	CurrentUserTeams(ctx context.Context) ([]string, error)

	// EnsureWrite fails with ErrPermission unless the caller may write to team.
	EnsureWrite(ctx context.Context, team string) error
}
