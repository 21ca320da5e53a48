package fs

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain file", raw: "wut", want: "wut"},
		{name: "leading slash stripped", raw: "/sub/b.py", want: "sub/b.py"},
		{name: "spaces preserved", raw: "spacey dir/wibble", want: "spacey dir/wibble"},
		{name: "redundant separators", raw: "sub//b.py", want: "sub/b.py"},
		{name: "dot segments", raw: "./sub/./b.py", want: "sub/b.py"},
		{name: "root as dot", raw: ".", want: "."},
		{name: "root as empty", raw: "", want: "."},
		{name: "root as slash", raw: "/", want: "."},
		{name: "parent traversal", raw: "../other/secret", wantErr: true},
		{name: "embedded traversal", raw: "sub/../../etc/passwd", wantErr: true},
		{name: "metadata dir", raw: ".git/config", wantErr: true},
		{name: "nested metadata dir", raw: "sub/.git/HEAD", wantErr: true},
		{name: "backslash", raw: `sub\b.py`, wantErr: true},
		{name: "nul byte", raw: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPath(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("CleanPath(%q) = %q, want error", tt.raw, got)
				}
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("CleanPath(%q) error = %v, want ErrInvalidPath", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanPath(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanFilePath_RejectsRoot(t *testing.T) {
	for _, raw := range []string{"", ".", "/"} {
		if _, err := CleanFilePath(raw); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("CleanFilePath(%q) error = %v, want ErrInvalidPath", raw, err)
		}
	}
	got, err := CleanFilePath("/a.py")
	if err != nil {
		t.Fatalf("CleanFilePath() error = %v", err)
	}
	if got != "a.py" {
		t.Errorf("CleanFilePath() = %q, want a.py", got)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"1", "monkies", "bees", "team-7", "user.name", "a_b", "bob@example.com"}
	for _, name := range valid {
		if err := ValidateName("project", name); err != nil {
			t.Errorf("ValidateName(%q) error = %v", name, err)
		}
	}

	invalid := []string{"", ".", "..", ".hidden", "a/b", "a..b", "-flag", "sp ace", strings.Repeat("x", 129)}
	for _, name := range invalid {
		if err := ValidateName("project", name); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ValidateName(%q) error = %v, want ErrInvalidPath", name, err)
		}
	}
}
