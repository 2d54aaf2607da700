package handlers

import (
	"net/http"
	"time"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/middleware"
	"github.com/chapters-studio/portfolio-api/services"
	"github.com/chapters-studio/portfolio-api/utils"
)

// UpdateProfileRequest is the payload for updating the caller's own account.
// All fields are optional; a new password is re-hashed before storage.
type UpdateProfileRequest struct {
	FullName *string `json:"fullname,omitempty" validate:"omitempty,min=1,max=255"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// GetProfileHandler returns the authenticated caller's account
func GetProfileHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.GetPrincipalFromContext(r.Context())
		if !ok {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		user, err := deps.Users.GetByEmail(r.Context(), principal.Email)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, user)
	}
}

// UpdateProfileHandler updates the authenticated caller's account
func UpdateProfileHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.GetPrincipalFromContext(r.Context())
		if !ok {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		var req UpdateProfileRequest
		if !decodeBody(w, r, &req) {
			return
		}

		user, err := deps.Users.GetByEmail(r.Context(), principal.Email)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		if req.FullName != nil {
			user.FullName = *req.FullName
		}
		if req.Password != nil {
			hash, err := deps.Hasher.Hash(*req.Password)
			if err != nil {
				HandleServiceError(w, services.WrapInternal("failed to hash password", err), deps.Logger)
				return
			}
			user.PasswordHash = hash
		}
		user.UpdatedAt = time.Now()

		if err := deps.Users.Update(r.Context(), user); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, user)
	}
}
