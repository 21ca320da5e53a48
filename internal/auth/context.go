package auth

import (
	"context"
	"net/http"

	"ide-go/internal/ide"
)

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id *ide.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *ide.Identity {
	id, _ := ctx.Value(identityKey{}).(*ide.Identity)
	return id
}

// Authenticator checks HTTP basic-auth credentials.
type Authenticator interface {
	Authenticate(name, password string) (*ide.Identity, error)
}

// BasicAuth rejects requests without valid credentials and stores the
// caller's identity in the request context for the handlers below it.
func BasicAuth(realm string, a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, realm)
				return
			}
			id, err := a.Authenticate(name, password)
			if err != nil {
				unauthorized(w, realm)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`", charset="UTF-8"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}` + "\n"))
}
