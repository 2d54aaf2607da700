package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/services"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeTokens(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	var envelope struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestSignupHandler(t *testing.T) {
	t.Run("registers a new account with a hashed password", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").
			Return(nil, services.ErrUserNotFound)

		var stored *models.User
		deps.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*models.User) }).
			Return(nil)

		w := postJSON(t, SignupHandler(deps.Dependencies), "/api/v1/users/signup", SignupRequest{
			FullName: "Alice Example",
			Email:    "alice@example.com",
			Password: "s3cret-password",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, stored)
		assert.Equal(t, models.RoleUser, stored.Role)
		assert.NotEqual(t, "s3cret-password", stored.PasswordHash)
		assert.True(t, deps.Hasher.Verify("s3cret-password", stored.PasswordHash))
		assert.NotContains(t, w.Body.String(), stored.PasswordHash)
	})

	t.Run("duplicate email gets 409", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").
			Return(&models.User{Email: "alice@example.com"}, nil)

		w := postJSON(t, SignupHandler(deps.Dependencies), "/api/v1/users/signup", SignupRequest{
			FullName: "Alice Example",
			Email:    "alice@example.com",
			Password: "s3cret-password",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		deps.users.AssertNotCalled(t, "Create")
	})

	t.Run("short password fails validation", func(t *testing.T) {
		deps := newTestDeps(t)

		w := postJSON(t, SignupHandler(deps.Dependencies), "/api/v1/users/signup", SignupRequest{
			FullName: "Alice Example",
			Email:    "alice@example.com",
			Password: "short",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		deps.users.AssertNotCalled(t, "GetByEmail")
	})
}

func TestLoginHandler(t *testing.T) {
	newAccount := func(t *testing.T, deps *testDeps, email, password string, role models.UserRole) *models.User {
		hash, err := deps.Hasher.Hash(password)
		require.NoError(t, err)
		return models.NewUser("Alice Example", email, hash, role)
	}

	t.Run("valid credentials yield a working token pair", func(t *testing.T) {
		deps := newTestDeps(t)
		user := newAccount(t, deps, "alice@example.com", "s3cret-password", models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		w := postJSON(t, LoginHandler(deps.Dependencies), "/api/v1/users/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "s3cret-password",
		})

		require.Equal(t, http.StatusOK, w.Code)
		tokens := decodeTokens(t, w)
		assert.Equal(t, "bearer", tokens.TokenType)

		claims, err := deps.TokenIssuer.Decode(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", claims.Subject)
		assert.Equal(t, "user", claims.Role)

		_, err = deps.TokenIssuer.Decode(tokens.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("wrong password gets 401 and no token", func(t *testing.T) {
		deps := newTestDeps(t)
		user := newAccount(t, deps, "alice@example.com", "s3cret-password", models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		w := postJSON(t, LoginHandler(deps.Dependencies), "/api/v1/users/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "access_token")
	})

	t.Run("unknown account reads the same as a wrong password", func(t *testing.T) {
		deps := newTestDeps(t)
		user := newAccount(t, deps, "alice@example.com", "s3cret-password", models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
		deps.users.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, services.ErrUserNotFound)

		wrongPassword := postJSON(t, LoginHandler(deps.Dependencies), "/api/v1/users/login", LoginRequest{
			Email: "alice@example.com", Password: "wrong-password",
		})
		unknownAccount := postJSON(t, LoginHandler(deps.Dependencies), "/api/v1/users/login", LoginRequest{
			Email: "nobody@example.com", Password: "whatever-password",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownAccount.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownAccount.Body.String())
	})

	t.Run("admin login rejects a non-admin account", func(t *testing.T) {
		deps := newTestDeps(t)
		user := newAccount(t, deps, "alice@example.com", "s3cret-password", models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		w := postJSON(t, AdminLoginHandler(deps.Dependencies), "/api/v1/admin/login", LoginRequest{
			Email:    "alice@example.com",
			Password: "s3cret-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("admin login accepts an admin account", func(t *testing.T) {
		deps := newTestDeps(t)
		user := newAccount(t, deps, "root@example.com", "s3cret-password", models.RoleAdmin)
		deps.users.On("GetByEmail", mock.Anything, "root@example.com").Return(user, nil)

		w := postJSON(t, AdminLoginHandler(deps.Dependencies), "/api/v1/admin/login", LoginRequest{
			Email:    "root@example.com",
			Password: "s3cret-password",
		})

		require.Equal(t, http.StatusOK, w.Code)
		claims, err := deps.TokenIssuer.Decode(decodeTokens(t, w).AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})
}

func TestRefreshHandler(t *testing.T) {
	t.Run("valid refresh token yields a fresh pair", func(t *testing.T) {
		deps := newTestDeps(t)
		hash, err := deps.Hasher.Hash("s3cret-password")
		require.NoError(t, err)
		user := models.NewUser("Alice Example", "alice@example.com", hash, models.RoleUser)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		refresh, err := deps.TokenIssuer.RefreshToken("alice@example.com", "user")
		require.NoError(t, err)

		w := postJSON(t, RefreshHandler(deps.Dependencies), "/api/v1/users/refresh", RefreshRequest{
			RefreshToken: refresh,
		})

		require.Equal(t, http.StatusOK, w.Code)
		tokens := decodeTokens(t, w)
		_, err = deps.TokenIssuer.Decode(tokens.AccessToken)
		assert.NoError(t, err)
	})

	t.Run("garbage refresh token gets 401", func(t *testing.T) {
		deps := newTestDeps(t)

		w := postJSON(t, RefreshHandler(deps.Dependencies), "/api/v1/users/refresh", RefreshRequest{
			RefreshToken: "not.a.token",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		deps.users.AssertNotCalled(t, "GetByEmail")
	})

	t.Run("refresh token of a deleted account gets 401", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.users.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, services.ErrUserNotFound)

		refresh, err := deps.TokenIssuer.RefreshToken("ghost@example.com", "user")
		require.NoError(t, err)

		w := postJSON(t, RefreshHandler(deps.Dependencies), "/api/v1/users/refresh", RefreshRequest{
			RefreshToken: refresh,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
