// Package keycloak integrates with the external identity provider: it
// fetches and caches the realm's signing keys, validates externally-issued
// RS256 tokens, and wraps the realm admin API.
package keycloak

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrJWKSFetchFailed is returned when the certs endpoint cannot be reached
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrKeyNotFound is returned when no published key matches a token's key id
	ErrKeyNotFound = errors.New("signing key not found")
)

// JWKS represents the JSON Web Key Set published by the realm
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// RSAPublicKey converts the JWK's modulus and exponent to an rsa.PublicKey
func (k *JWK) RSAPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}

// keyCache is the cached key set together with its absolute expiry.
// It is always read and replaced as a whole so readers never observe a
// torn entry.
type keyCache struct {
	keys      []JWK
	expiresAt time.Time
}

// KeyProvider fetches and caches the realm's signing keys. The cache is
// refreshed lazily when it expires; a forced refresh covers key rotation.
// Fetch failures degrade to the previous cached set (or an empty set),
// never to an error reaching the token path.
type KeyProvider struct {
	jwksURL    string
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	cache keyCache
}

// KeyProviderConfig holds configuration for KeyProvider
type KeyProviderConfig struct {
	JWKSURL     string
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// NewKeyProvider creates a key provider for the given certs endpoint
func NewKeyProvider(cfg KeyProviderConfig, logger *zap.Logger) *KeyProvider {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	return &KeyProvider{
		jwksURL:  cfg.JWKSURL,
		cacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Keys returns the current key set. Inside the cache TTL the cached set is
// returned with no network access; once expired, a fetch replaces the cache.
func (p *KeyProvider) Keys(ctx context.Context) []JWK {
	p.mu.RLock()
	cached := p.cache
	p.mu.RUnlock()

	if p.now().Before(cached.expiresAt) {
		return cached.keys
	}

	return p.Refresh(ctx)
}

// Refresh fetches the key set unconditionally, replacing the cache on
// success. On failure the previous set (possibly empty) is returned and the
// cache is left untouched, so the next call retries.
func (p *KeyProvider) Refresh(ctx context.Context) []JWK {
	fresh, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("JWKS refresh failed, serving cached keys", zap.Error(err))
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.cache.keys
	}

	p.mu.Lock()
	p.cache = keyCache{keys: fresh, expiresAt: p.now().Add(p.cacheTTL)}
	p.mu.Unlock()

	p.logger.Debug("JWKS cache refreshed", zap.Int("keys", len(fresh)))
	return fresh
}

// KeyByID returns the key with the given key id from the current set.
// A miss triggers exactly one forced refresh to tolerate key rotation
// before giving up.
func (p *KeyProvider) KeyByID(ctx context.Context, kid string) (*JWK, error) {
	if key := findKey(p.Keys(ctx), kid); key != nil {
		return key, nil
	}

	// Unknown kid: the provider may have rotated its keys since the last
	// fetch. Refresh once and retry.
	if key := findKey(p.Refresh(ctx), kid); key != nil {
		return key, nil
	}

	return nil, fmt.Errorf("%w: kid %s", ErrKeyNotFound, kid)
}

func findKey(keys []JWK, kid string) *JWK {
	for i := range keys {
		if keys[i].Kid == kid {
			return &keys[i]
		}
	}
	return nil
}

func (p *KeyProvider) fetch(ctx context.Context) ([]JWK, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	return jwks.Keys, nil
}
