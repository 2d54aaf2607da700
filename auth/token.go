package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token fails verification for any
	// reason: bad signature, malformed payload, or expiry. Callers must not
	// learn which check failed.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenIssuer signs and verifies locally-issued bearer tokens with a shared
// symmetric secret. Access and refresh tokens share the encoding and differ
// only in TTL.
type TokenIssuer struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer for the given secret and signing
// algorithm name (HS256/HS384/HS512)
func NewTokenIssuer(secret, algorithm string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm: %s", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("algorithm %s is not symmetric", algorithm)
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a token for the subject carrying a single role claim,
// expiring after ttl
func (i *TokenIssuer) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &LocalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(i.method, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AccessToken issues a short-lived access token
func (i *TokenIssuer) AccessToken(subject, role string) (string, error) {
	return i.Issue(subject, role, i.accessTTL)
}

// RefreshToken issues a long-lived refresh token
func (i *TokenIssuer) RefreshToken(subject, role string) (string, error) {
	return i.Issue(subject, role, i.refreshTTL)
}

// Decode verifies the token's signature and expiry and returns its claims.
// Every failure mode collapses to ErrInvalidToken; no library error crosses
// this boundary.
func (i *TokenIssuer) Decode(tokenString string) (*LocalClaims, error) {
	claims := &LocalClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenVerifier validates a bearer token and returns the authenticated
// principal. Implemented by LocalVerifier, keycloak.Validator and
// VerifierChain.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// LocalVerifier adapts TokenIssuer.Decode to the TokenVerifier interface
type LocalVerifier struct {
	issuer *TokenIssuer
}

// NewLocalVerifier creates a verifier for locally-issued tokens
func NewLocalVerifier(issuer *TokenIssuer) *LocalVerifier {
	return &LocalVerifier{issuer: issuer}
}

// Verify decodes a locally-issued token and returns its principal
func (v *LocalVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := v.issuer.Decode(token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

// VerifierChain tries each verifier in order and returns the first success.
// Used when both locally-issued and externally-issued tokens are accepted.
type VerifierChain []TokenVerifier

// Verify returns the principal from the first verifier accepting the token,
// or ErrInvalidToken when none does
func (c VerifierChain) Verify(ctx context.Context, token string) (*Principal, error) {
	for _, v := range c {
		principal, err := v.Verify(ctx, token)
		if err == nil {
			return principal, nil
		}
	}
	return nil, ErrInvalidToken
}
