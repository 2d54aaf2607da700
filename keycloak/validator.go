package keycloak

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/auth"
)

// Validator verifies RS256 tokens issued by the configured realm. It never
// issues tokens; issuance is the identity provider's job. Implements
// auth.TokenVerifier.
type Validator struct {
	keys     *KeyProvider
	clientID string
	issuer   string
	logger   *zap.Logger
}

// NewValidator creates a validator bound to the realm's key provider.
// Tokens must carry the configured client id as audience and the realm URL
// as issuer.
func NewValidator(keys *KeyProvider, clientID, issuer string, logger *zap.Logger) *Validator {
	return &Validator{
		keys:     keys,
		clientID: clientID,
		issuer:   issuer,
		logger:   logger,
	}
}

// compile-time check
var _ auth.TokenVerifier = (*Validator)(nil)

// Verify validates the token's signature against the realm's published keys
// and checks expiry, audience and issuer. Every failure collapses to
// auth.ErrInvalidToken so callers cannot distinguish which check failed.
func (v *Validator) Verify(ctx context.Context, tokenString string) (*auth.Principal, error) {
	claims := &auth.KeycloakClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}

		jwk, err := v.keys.KeyByID(ctx, kid)
		if err != nil {
			return nil, err
		}
		return jwk.RSAPublicKey()
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.clientID),
		jwt.WithIssuer(v.issuer),
	)

	if err != nil || !token.Valid {
		v.logger.Debug("external token rejected", zap.Error(err))
		return nil, auth.ErrInvalidToken
	}

	return claims.PrincipalFor(v.clientID), nil
}
