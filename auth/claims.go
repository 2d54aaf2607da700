package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the normalized identity handed to protected operations after
// a token has been verified. Roles are already resolved regardless of which
// issuer minted the token.
type Principal struct {
	Subject   string
	Email     string
	Name      string
	Username  string
	Roles     []string
	ExpiresAt time.Time
}

// HasAnyRole reports whether the principal holds at least one of the given
// roles. An empty argument list always reports true: it is the "any
// authenticated principal" case.
func (p *Principal) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, required := range roles {
		for _, held := range p.Roles {
			if held == required {
				return true
			}
		}
	}
	return false
}

// LocalClaims is the claim set of a locally-issued HS256 token
type LocalClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Roles promotes the single role claim to a one-element set
func (c *LocalClaims) Roles() []string {
	if c.Role == "" {
		return nil
	}
	return []string{c.Role}
}

// Principal converts the claim set to a normalized principal
func (c *LocalClaims) Principal() *Principal {
	p := &Principal{
		Subject: c.Subject,
		Email:   c.Subject, // local tokens use the account email as subject
		Roles:   c.Roles(),
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// KeycloakClaims is the claim set of a token issued by the external identity
// provider. Client roles live under resource_access[client].roles.
type KeycloakClaims struct {
	jwt.RegisteredClaims
	Email             string                    `json:"email"`
	Name              string                    `json:"name"`
	PreferredUsername string                    `json:"preferred_username"`
	ResourceAccess    map[string]ResourceAccess `json:"resource_access"`
}

// ResourceAccess holds the roles granted for a single client
type ResourceAccess struct {
	Roles []string `json:"roles"`
}

// RolesFor returns the roles granted for the given client id. Any missing
// level of the resource_access path yields an empty set, never an error.
func (c *KeycloakClaims) RolesFor(clientID string) []string {
	if c.ResourceAccess == nil {
		return nil
	}
	access, ok := c.ResourceAccess[clientID]
	if !ok {
		return nil
	}
	return access.Roles
}

// PrincipalFor converts the claim set to a normalized principal with the
// roles granted for the given client id
func (c *KeycloakClaims) PrincipalFor(clientID string) *Principal {
	p := &Principal{
		Subject:  c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Username: c.PreferredUsername,
		Roles:    c.RolesFor(clientID),
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
