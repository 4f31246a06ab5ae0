package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ironvault/ironvault/internal/models"
	pkghttp "github.com/ironvault/ironvault/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// ActorContextKey is the key for storing the resolved actor in context
const ActorContextKey contextKey = "actor"

// UnauthorizedRecorder receives denied authorization attempts so they can be
// audited. Recording must never block or fail the response.
type UnauthorizedRecorder interface {
	RecordUnauthorized(ctx context.Context, actor Actor, ip string)
}

// ActorFromContext returns the authenticated actor resolved by RequireAuth
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(Actor)
	return actor, ok
}

// RequireAuth validates the bearer session token and injects the actor into
// the request context. Every operation downstream resolves its identity from
// that actor, never from request parameters.
func RequireAuth(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			actor, err := tm.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole denies the request unless the actor holds one of the allowed
// roles. The response is a uniform "Unauthorized" that leaks nothing about
// the resource; the denied attempt itself is audited.
func RequireRole(recorder UnauthorizedRecorder, ipConfig *pkghttp.IPConfig, allowed ...models.Role) func(next http.Handler) http.Handler {
	allowedSet := make(map[models.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, "Unauthorized")
				return
			}

			if !allowedSet[actor.Role] {
				if recorder != nil {
					recorder.RecordUnauthorized(r.Context(), actor, pkghttp.ExtractClientIP(r, ipConfig))
				}
				pkghttp.WriteForbidden(w, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
