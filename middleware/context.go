package middleware

import (
	"context"

	"github.com/chapters-studio/portfolio-api/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// principalKey is the context key for the authenticated principal
	principalKey contextKey = "principal"
)

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipalFromContext retrieves the authenticated principal from context.
// The second return is false when the request did not pass the access guard.
func GetPrincipalFromContext(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok
}
