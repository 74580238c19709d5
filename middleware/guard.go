package middleware

import (
	"context"
	"net/http"
	"strings"

	codeAuth "github.com/MrEthical07/codeAuth"
)

type identityContextKey struct{}

// Authenticator resolves a bearer token to the current identity.
// *codeAuth.Engine satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*codeAuth.Identity, error)
}

// IdentityFromContext returns the identity stored by [Guard].
func IdentityFromContext(ctx context.Context) (*codeAuth.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey{}).(*codeAuth.Identity)
	return ident, ok
}

// Guard rejects requests without a valid bearer token and stores the
// authenticated identity in the request context.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ident, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireElevated allows only identities whose role is above lowest. It
// must run after [Guard].
func RequireElevated(lowest codeAuth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if ident.Role == lowest {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
