package app

import (
	"context"
	"errors"
	"testing"

	"ide-go/internal/ide"
)

func TestOperator(t *testing.T) {
	op := NewOperator(ide.Author{Name: "IDE", Email: "ide@localhost"}, "alpha")

	t.Run("anonymous context", func(t *testing.T) {
		ctx := context.Background()
		id, err := op.CurrentUser(ctx)
		if err != nil || id != nil {
			t.Errorf("CurrentUser() = %v, %v, want nil, nil", id, err)
		}
		if err := op.EnsureWrite(ctx, "alpha"); !errors.Is(err, ide.ErrPermission) {
			t.Errorf("EnsureWrite() error = %v, want ErrPermission", err)
		}
	})

	t.Run("operator context", func(t *testing.T) {
		ctx := op.Context(context.Background())
		id, err := op.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser() error = %v", err)
		}
		if id.Name != "IDE" || id.Email != "ide@localhost" {
			t.Errorf("CurrentUser() = %+v", id)
		}

		teams, err := op.CurrentUserTeams(ctx)
		if err != nil || len(teams) != 1 || teams[0] != "alpha" {
			t.Errorf("CurrentUserTeams() = %v, %v", teams, err)
		}

		if err := op.EnsureWrite(ctx, "alpha"); err != nil {
			t.Errorf("EnsureWrite(alpha) error = %v", err)
		}
		if err := op.EnsureWrite(ctx, "beta"); !errors.Is(err, ide.ErrPermission) {
			t.Errorf("EnsureWrite(beta) error = %v, want ErrPermission", err)
		}
	})

	t.Run("contexts do not share identity", func(t *testing.T) {
		ctx := op.Context(context.Background())
		id, _ := op.CurrentUser(ctx)
		id.Name = "changed"
		again, _ := op.CurrentUser(op.Context(context.Background()))
		if again.Name != "IDE" {
			t.Errorf("identity mutated through a previous context: %q", again.Name)
		}
	})
}
