package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/auth"
	"github.com/chapters-studio/portfolio-api/utils"
)

// defaultBypassRoles are granted by the bypass authorizer when an operation
// declares no allow-list of its own
var defaultBypassRoles = []string{"user", "admin"}

// authError is a terminal access-guard outcome
type authError struct {
	status  int
	message string
}

// authorizer decides whether a request may proceed and under which
// principal. Selected once at construction: the production path never
// carries the bypass branch.
type authorizer interface {
	authorize(r *http.Request, allowedRoles []string) (*auth.Principal, *authError)
}

// AuthMiddleware guards protected operations. Each operation declares an
// allow-list of permitted roles; an empty allow-list admits any
// authenticated principal.
type AuthMiddleware struct {
	authz  authorizer
	logger *zap.Logger
}

// NewAuthMiddleware creates a middleware verifying bearer tokens with the
// given verifier
func NewAuthMiddleware(verifier auth.TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authz:  &realAuthorizer{verifier: verifier},
		logger: logger,
	}
}

// NewBypassAuthMiddleware creates a middleware that admits every request
// with a synthesized principal. For development and tests only; this is the
// single intentional fail-open path.
func NewBypassAuthMiddleware(logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authz:  &bypassAuthorizer{},
		logger: logger,
	}
}

// RequireRoles returns a middleware admitting only principals holding at
// least one of the given roles. With no roles, any successfully
// authenticated principal is admitted.
func (m *AuthMiddleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, authErr := m.authz.authorize(r, roles)
			if authErr != nil {
				m.logger.Warn("request rejected by access guard",
					zap.String("path", r.URL.Path),
					zap.Int("status", authErr.status),
					zap.String("reason", authErr.message))
				_ = utils.WriteError(w, authErr.status, authErr.message, nil)
				return
			}

			m.logger.Debug("authentication successful",
				zap.String("path", r.URL.Path),
				zap.String("sub", principal.Subject),
				zap.Strings("roles", principal.Roles))

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth is shorthand for RequireRoles with an empty allow-list
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return m.RequireRoles()(next)
}

// realAuthorizer is the production path: extract, verify, check roles
type realAuthorizer struct {
	verifier auth.TokenVerifier
}

func (a *realAuthorizer) authorize(r *http.Request, allowedRoles []string) (*auth.Principal, *authError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, &authError{http.StatusUnauthorized, "Authentication required"}
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, &authError{http.StatusUnauthorized, "Invalid authentication scheme"}
	}

	token := strings.TrimSpace(parts[1])
	principal, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		// Deliberately opaque: signature, expiry and key-resolution failures
		// all read the same to the caller.
		return nil, &authError{http.StatusUnauthorized, "Invalid or expired token"}
	}

	if !principal.HasAnyRole(allowedRoles...) {
		return nil, &authError{http.StatusForbidden, "You don't have permission to access this resource"}
	}

	return principal, nil
}

// bypassAuthorizer synthesizes a principal granted exactly the operation's
// allow-list, so every protected route is exercisable without an identity
// provider
type bypassAuthorizer struct{}

func (a *bypassAuthorizer) authorize(_ *http.Request, allowedRoles []string) (*auth.Principal, *authError) {
	roles := allowedRoles
	if len(roles) == 0 {
		roles = defaultBypassRoles
	}
	return &auth.Principal{
		Subject: "dev-bypass",
		Email:   "dev-bypass@localhost",
		Roles:   roles,
	}, nil
}
