package ide

import "testing"

func TestIdentityAuthor(t *testing.T) {
	a := (&Identity{Name: "bees", Email: "bees@example.com"}).Author()
	if a.String() != "bees <bees@example.com>" {
		t.Errorf("Author() = %q", a.String())
	}
	a = (&Identity{Name: "bees", DisplayName: "Busy Bees", Email: "b@x"}).Author()
	if a.Name != "Busy Bees" {
		t.Errorf("Author().Name = %q, want display name", a.Name)
	}
}
