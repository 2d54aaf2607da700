package keycloak

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Test helper to generate an RSA key pair
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// Test helper to convert a public key to a JWK
func jwkFromPublicKey(publicKey *rsa.PublicKey, kid string) JWK {
	return JWK{
		Kid: kid,
		Kty: "RSA",
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
	}
}

// jwksServer serves a mutable key set and counts fetches
type jwksServer struct {
	*httptest.Server
	fetches atomic.Int64
	keys    atomic.Value // []JWK
}

func newJWKSServer(keys ...JWK) *jwksServer {
	s := &jwksServer{}
	s.keys.Store(keys)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(JWKS{Keys: s.keys.Load().([]JWK)})
	}))
	return s
}

func (s *jwksServer) setKeys(keys ...JWK) {
	s.keys.Store(keys)
}

func TestJWK_RSAPublicKey(t *testing.T) {
	t.Run("round trips modulus and exponent", func(t *testing.T) {
		key := generateTestKey(t)
		jwk := jwkFromPublicKey(&key.PublicKey, "key-1")

		got, err := jwk.RSAPublicKey()
		require.NoError(t, err)
		assert.Equal(t, key.PublicKey.N, got.N)
		assert.Equal(t, key.PublicKey.E, got.E)
	})

	t.Run("rejects malformed modulus", func(t *testing.T) {
		jwk := JWK{N: "!!!not-base64!!!", E: "AQAB"}
		_, err := jwk.RSAPublicKey()
		assert.Error(t, err)
	})

	t.Run("rejects malformed exponent", func(t *testing.T) {
		jwk := JWK{N: "AQAB", E: "!!!not-base64!!!"}
		_, err := jwk.RSAPublicKey()
		assert.Error(t, err)
	})
}

func TestKeyProvider_Keys(t *testing.T) {
	ctx := context.Background()
	key := generateTestKey(t)

	t.Run("caches inside the ttl", func(t *testing.T) {
		server := newJWKSServer(jwkFromPublicKey(&key.PublicKey, "key-1"))
		defer server.Close()

		provider := NewKeyProvider(KeyProviderConfig{
			JWKSURL:  server.URL,
			CacheTTL: time.Hour,
		}, zap.NewNop())

		for i := 0; i < 5; i++ {
			keys := provider.Keys(ctx)
			require.Len(t, keys, 1)
			assert.Equal(t, "key-1", keys[0].Kid)
		}

		assert.Equal(t, int64(1), server.fetches.Load())
	})

	t.Run("refetches after the ttl expires", func(t *testing.T) {
		server := newJWKSServer(jwkFromPublicKey(&key.PublicKey, "key-1"))
		defer server.Close()

		current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		provider := NewKeyProvider(KeyProviderConfig{
			JWKSURL:  server.URL,
			CacheTTL: 10 * time.Minute,
		}, zap.NewNop())
		provider.now = func() time.Time { return current }

		provider.Keys(ctx)
		provider.Keys(ctx)
		assert.Equal(t, int64(1), server.fetches.Load())

		current = current.Add(11 * time.Minute)
		provider.Keys(ctx)
		assert.Equal(t, int64(2), server.fetches.Load())
	})

	t.Run("serves stale keys when the fetch fails", func(t *testing.T) {
		server := newJWKSServer(jwkFromPublicKey(&key.PublicKey, "key-1"))

		current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		provider := NewKeyProvider(KeyProviderConfig{
			JWKSURL:  server.URL,
			CacheTTL: 10 * time.Minute,
		}, zap.NewNop())
		provider.now = func() time.Time { return current }

		keys := provider.Keys(ctx)
		require.Len(t, keys, 1)

		server.Close()
		current = current.Add(11 * time.Minute)

		keys = provider.Keys(ctx)
		assert.Len(t, keys, 1, "previous set survives a failed refresh")
	})

	t.Run("empty set when the first fetch fails", func(t *testing.T) {
		server := newJWKSServer()
		server.Close()

		provider := NewKeyProvider(KeyProviderConfig{
			JWKSURL:  server.URL,
			CacheTTL: time.Hour,
		}, zap.NewNop())

		assert.Empty(t, provider.Keys(ctx))
	})

	t.Run("failed refresh leaves cache expired so the next call retries", func(t *testing.T) {
		server := newJWKSServer()
		server.Close()

		provider := NewKeyProvider(KeyProviderConfig{
			JWKSURL:  server.URL,
			CacheTTL: time.Hour,
		}, zap.NewNop())

		provider.Keys(ctx)
		provider.Keys(ctx)
		// Both calls attempted a fetch; a failure never pins an empty cache
		assert.Equal(t, int64(0), server.fetches.Load())
	})
}

func TestKeyProvider_KeyByID(t *testing.T) {
	ctx := context.Background()
	keyA := generateTestKey(t)
	keyB := generateTestKey(t)

	t.Run("finds a cached key without refetching", func(t *testing.T) {
		server := newJWKSServer(
			jwkFromPublicKey(&keyA.PublicKey, "key-a"),
			jwkFromPublicKey(&keyB.PublicKey, "key-b"),
		)
		defer server.Close()

		provider := NewKeyProvider(KeyProviderConfig{JWKSURL: server.URL, CacheTTL: time.Hour}, zap.NewNop())

		jwk, err := provider.KeyByID(ctx, "key-b")
		require.NoError(t, err)
		assert.Equal(t, "key-b", jwk.Kid)

		_, err = provider.KeyByID(ctx, "key-a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), server.fetches.Load())
	})

	t.Run("unknown kid forces exactly one refresh", func(t *testing.T) {
		server := newJWKSServer(jwkFromPublicKey(&keyA.PublicKey, "key-a"))
		defer server.Close()

		provider := NewKeyProvider(KeyProviderConfig{JWKSURL: server.URL, CacheTTL: time.Hour}, zap.NewNop())

		// Warm the cache with the old key set
		_, err := provider.KeyByID(ctx, "key-a")
		require.NoError(t, err)
		require.Equal(t, int64(1), server.fetches.Load())

		// Rotate: the provider now publishes a different key
		server.setKeys(jwkFromPublicKey(&keyB.PublicKey, "key-b"))

		jwk, err := provider.KeyByID(ctx, "key-b")
		require.NoError(t, err)
		assert.Equal(t, "key-b", jwk.Kid)
		assert.Equal(t, int64(2), server.fetches.Load())
	})

	t.Run("kid absent even after refresh", func(t *testing.T) {
		server := newJWKSServer(jwkFromPublicKey(&keyA.PublicKey, "key-a"))
		defer server.Close()

		provider := NewKeyProvider(KeyProviderConfig{JWKSURL: server.URL, CacheTTL: time.Hour}, zap.NewNop())

		_, err := provider.KeyByID(ctx, "no-such-key")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		// One lazy fetch plus one forced refresh
		assert.Equal(t, int64(2), server.fetches.Load())
	})
}
