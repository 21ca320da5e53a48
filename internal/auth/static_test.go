package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ide-go/internal/config"
	"ide-go/internal/ide"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func testUsers(t *testing.T) []config.UserConfig {
	return []config.UserConfig{
		{
			Name:         "Alice",
			DisplayName:  "Alice Liddell",
			Email:        "alice@example.com",
			PasswordHash: hash(t, "wonderland"),
			Teams:        []string{"alpha", "beta"},
			WriteTeams:   []string{"alpha"},
		},
		{
			Name:         "bob",
			PasswordHash: hash(t, "builder"),
			Teams:        []string{"beta"},
		},
	}
}

func TestStatic_Authenticate(t *testing.T) {
	s := NewStatic(testUsers(t))

	t.Run("valid credentials", func(t *testing.T) {
		id, err := s.Authenticate("ALICE", "wonderland")
		require.NoError(t, err)
		assert.Equal(t, "alice", id.Name)
		assert.Equal(t, "Alice Liddell <alice@example.com>", id.Author().String())
	})

	t.Run("default email", func(t *testing.T) {
		id, err := s.Authenticate("bob", "builder")
		require.NoError(t, err)
		assert.Equal(t, "bob <bob@localhost>", id.Author().String())
	})

	t.Run("bad password", func(t *testing.T) {
		_, err := s.Authenticate("alice", "nope")
		assert.ErrorIs(t, err, ide.ErrPermission)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.Authenticate("carol", "x")
		assert.ErrorIs(t, err, ide.ErrPermission)
	})
}

func TestStatic_TeamsAndWrite(t *testing.T) {
	s := NewStatic(testUsers(t))
	alice, err := s.Authenticate("alice", "wonderland")
	require.NoError(t, err)
	ctx := WithIdentity(context.Background(), alice)

	teams, err := s.CurrentUserTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, teams)

	assert.NoError(t, s.EnsureWrite(ctx, "alpha"))
	assert.ErrorIs(t, s.EnsureWrite(ctx, "beta"), ide.ErrPermission)

	anon := context.Background()
	id, err := s.CurrentUser(anon)
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.ErrorIs(t, s.EnsureWrite(anon, "alpha"), ide.ErrPermission)
}

func TestStatic_Replace(t *testing.T) {
	s := NewStatic(testUsers(t))
	alice, err := s.Authenticate("alice", "wonderland")
	require.NoError(t, err)
	ctx := WithIdentity(context.Background(), alice)

	users := testUsers(t)
	users[0].Teams = []string{"gamma"}
	users[0].WriteTeams = []string{"gamma"}
	s.Replace(users)

	teams, err := s.CurrentUserTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, teams)
	assert.ErrorIs(t, s.EnsureWrite(ctx, "alpha"), ide.ErrPermission)
	assert.NoError(t, s.EnsureWrite(ctx, "gamma"))
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("secret")))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestBasicAuth(t *testing.T) {
	s := NewStatic(testUsers(t))
	var seen *ide.Identity
	handler := BasicAuth("ide", s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		user     string
		password string
		setAuth  bool
		want     int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"bad password", "alice", "x", true, http.StatusUnauthorized},
		{"valid", "alice", "wonderland", true, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, "alice", seen.Name)
		})
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if id := IdentityFromContext(context.Background()); id != nil {
		t.Errorf("IdentityFromContext() = %v, want nil", id)
	}
}
