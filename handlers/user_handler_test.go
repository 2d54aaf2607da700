package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chapters-studio/portfolio-api/models"
)

func profileRouter(deps *testDeps) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Get("/users/me", GetProfileHandler(deps.Dependencies))
		r.Put("/users/me", UpdateProfileHandler(deps.Dependencies))
	})
	return r
}

func TestGetProfileHandler(t *testing.T) {
	t.Run("returns the caller's account without the password hash", func(t *testing.T) {
		deps := newTestDeps(t)
		hash, err := deps.Hasher.Hash("s3cret-password")
		require.NoError(t, err)
		user := models.NewUser("Alice Example", "alice@example.com", hash, models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		token, err := deps.TokenIssuer.AccessToken("alice@example.com", "user")
		require.NoError(t, err)

		w := doJSON(t, profileRouter(deps), http.MethodGet, "/users/me", token, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice@example.com")
		assert.NotContains(t, w.Body.String(), hash)
	})

	t.Run("requires authentication", func(t *testing.T) {
		deps := newTestDeps(t)
		w := doJSON(t, profileRouter(deps), http.MethodGet, "/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpdateProfileHandler(t *testing.T) {
	t.Run("changing the password re-hashes it", func(t *testing.T) {
		deps := newTestDeps(t)
		oldHash, err := deps.Hasher.Hash("old-password")
		require.NoError(t, err)
		user := models.NewUser("Alice Example", "alice@example.com", oldHash, models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		deps.users.On("Update", mock.Anything, user).Return(nil)

		token, err := deps.TokenIssuer.AccessToken("alice@example.com", "user")
		require.NoError(t, err)

		password := "new-password-123"
		w := doJSON(t, profileRouter(deps), http.MethodPut, "/users/me", token,
			UpdateProfileRequest{Password: &password})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, oldHash, user.PasswordHash)
		assert.NotEqual(t, "new-password-123", user.PasswordHash)
		assert.True(t, deps.Hasher.Verify("new-password-123", user.PasswordHash))
	})

	t.Run("renaming leaves the password untouched", func(t *testing.T) {
		deps := newTestDeps(t)
		hash, err := deps.Hasher.Hash("s3cret-password")
		require.NoError(t, err)
		user := models.NewUser("Alice Example", "alice@example.com", hash, models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		deps.users.On("Update", mock.Anything, user).Return(nil)

		token, err := deps.TokenIssuer.AccessToken("alice@example.com", "user")
		require.NoError(t, err)

		name := "Alice Renamed"
		w := doJSON(t, profileRouter(deps), http.MethodPut, "/users/me", token,
			UpdateProfileRequest{FullName: &name})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Alice Renamed", user.FullName)
		assert.Equal(t, hash, user.PasswordHash)
	})

	t.Run("short new password fails validation", func(t *testing.T) {
		deps := newTestDeps(t)
		token, err := deps.TokenIssuer.AccessToken("alice@example.com", "user")
		require.NoError(t, err)

		password := "short"
		w := doJSON(t, profileRouter(deps), http.MethodPut, "/users/me", token,
			UpdateProfileRequest{Password: &password})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		deps.users.AssertNotCalled(t, "Update")
	})
}
