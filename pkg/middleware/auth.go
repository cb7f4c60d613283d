package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fkhayef/rewear/pkg/authz"
	"github.com/fkhayef/rewear/pkg/response"
	"github.com/fkhayef/rewear/pkg/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorKey is the context key for the authenticated actor
	ActorKey ContextKey = "actor"
)

// Auth validates the bearer token and stashes the acting member in the
// request context. Credentials are never checked here; the token issuer
// already did that.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := token.Validate(parts[1], secret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			actor := authz.Actor{MemberID: claims.MemberID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor extracts the authenticated actor from the request context
func GetActor(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(authz.Actor)
	return actor, ok
}

// GetMemberID extracts the authenticated member ID from the request context
func GetMemberID(ctx context.Context) (int64, bool) {
	actor, ok := GetActor(ctx)
	return actor.MemberID, ok
}
