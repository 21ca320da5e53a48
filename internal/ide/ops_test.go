package ide

import "testing"

func TestOpString(t *testing.T) {
	if OpDelete.String() != "del" || OpCheckout.String() != "co" || OpCreate.String() != "create" {
		t.Error("unexpected op names")
	}
	if Op(0).String() != "unknown" {
		t.Errorf("Op(0) = %q", Op(0).String())
	}
}
