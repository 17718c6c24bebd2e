package middleware

import (
	"context"

	"github.com/microfront/profile-service/jwtauth"
)

// Context key type to avoid collisions
type contextKey string

// authContextKey is the context key for the verified identity.
const authContextKey contextKey = "auth_context"

// WithAuthContext attaches a verified identity to the request context.
func WithAuthContext(ctx context.Context, ac *jwtauth.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// AuthContextFrom retrieves the verified identity from the request
// context. Returns nil when the request did not pass the auth gate.
func AuthContextFrom(ctx context.Context) *jwtauth.AuthContext {
	if val := ctx.Value(authContextKey); val != nil {
		if ac, ok := val.(*jwtauth.AuthContext); ok {
			return ac
		}
	}
	return nil
}
