package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/services"
	"github.com/chapters-studio/portfolio-api/utils"
)

// SignupRequest is the payload for account registration
type SignupRequest struct {
	FullName string `json:"fullname" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the payload for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the payload for exchanging a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SignupHandler registers a new account. The password only ever leaves this
// handler as a bcrypt hash.
func SignupHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if _, err := deps.Users.GetByEmail(r.Context(), req.Email); err == nil {
			HandleServiceError(w, services.ErrDuplicateEmail, deps.Logger)
			return
		} else if !services.IsNotFoundError(err) {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		hash, err := deps.Hasher.Hash(req.Password)
		if err != nil {
			HandleServiceError(w, services.WrapInternal("failed to hash password", err), deps.Logger)
			return
		}

		user := models.NewUser(req.FullName, req.Email, hash, models.RoleUser)
		if err := deps.Users.Create(r.Context(), user); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("user registered", zap.String("email", user.Email))
		_ = utils.WriteCreated(w, user)
	}
}

// LoginHandler verifies credentials and issues a token pair
func LoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return login(deps, false)
}

// AdminLoginHandler verifies credentials and issues a token pair, but only
// for accounts holding the admin role. Non-admin accounts get the same
// rejection as bad credentials.
func AdminLoginHandler(deps *app.Dependencies) http.HandlerFunc {
	return login(deps, true)
}

func login(deps *app.Dependencies, adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		user, err := deps.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if services.IsNotFoundError(err) {
				// Same message as a wrong password: do not reveal whether
				// the account exists.
				HandleServiceError(w, services.ErrInvalidCredentials, deps.Logger)
				return
			}
			HandleServiceError(w, err, deps.Logger)
			return
		}

		if !deps.Hasher.Verify(req.Password, user.PasswordHash) {
			HandleServiceError(w, services.ErrInvalidCredentials, deps.Logger)
			return
		}

		if adminOnly && !user.IsAdmin() {
			HandleServiceError(w, services.ErrInvalidCredentials, deps.Logger)
			return
		}

		tokens, err := issueTokenPair(deps, user)
		if err != nil {
			HandleServiceError(w, services.WrapInternal("failed to issue tokens", err), deps.Logger)
			return
		}

		deps.Logger.Info("user logged in",
			zap.String("email", user.Email),
			zap.String("role", string(user.Role)))
		_ = utils.WriteOK(w, tokens)
	}
}

// RefreshHandler exchanges a valid refresh token for a fresh token pair
func RefreshHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		claims, err := deps.TokenIssuer.Decode(req.RefreshToken)
		if err != nil {
			HandleServiceError(w, services.ErrInvalidToken, deps.Logger)
			return
		}

		// The subject must still resolve to an account; a deleted account's
		// refresh token is dead.
		user, err := deps.Users.GetByEmail(r.Context(), claims.Subject)
		if err != nil {
			if services.IsNotFoundError(err) {
				HandleServiceError(w, services.ErrInvalidToken, deps.Logger)
				return
			}
			HandleServiceError(w, err, deps.Logger)
			return
		}

		tokens, err := issueTokenPair(deps, user)
		if err != nil {
			HandleServiceError(w, services.WrapInternal("failed to issue tokens", err), deps.Logger)
			return
		}

		_ = utils.WriteOK(w, tokens)
	}
}

func issueTokenPair(deps *app.Dependencies, user *models.User) (*TokenResponse, error) {
	access, err := deps.TokenIssuer.AccessToken(user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := deps.TokenIssuer.RefreshToken(user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
