package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/relaypoint/push-service/internal/security"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// AuthMiddleware guards the internal publish API: requires a Bearer token the
// verifier accepts.
func AuthMiddleware(verifier security.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}

			principal, err := verifier.Authenticate(strings.TrimSpace(auth[7:]))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid token"}`))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromCtx(ctx context.Context) *security.Principal {
	if v := ctx.Value(ctxKeyPrincipal); v != nil {
		if p, ok := v.(*security.Principal); ok {
			return p
		}
	}
	return nil
}
