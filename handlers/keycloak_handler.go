package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/keycloak"
	"github.com/chapters-studio/portfolio-api/utils"
)

// ListRealmUsersHandler lists the users of the identity provider realm
func ListRealmUsersHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.KeycloakAdmin == nil {
			_ = utils.WriteBadGateway(w, "Identity provider not configured")
			return
		}

		users, err := deps.KeycloakAdmin.Users(r.Context())
		if err != nil {
			writeRealmError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, users)
	}
}

// GetRealmUserHandler fetches a single identity provider user by id
func GetRealmUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.KeycloakAdmin == nil {
			_ = utils.WriteBadGateway(w, "Identity provider not configured")
			return
		}

		id := chi.URLParam(r, "id")
		user, err := deps.KeycloakAdmin.UserByID(r.Context(), id)
		if err != nil {
			writeRealmError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, user)
	}
}

func writeRealmError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if errors.Is(err, keycloak.ErrUserNotFound) {
		_ = utils.WriteNotFound(w, "User not found")
		return
	}
	logger.Error("identity provider request failed", zap.Error(err))
	_ = utils.WriteBadGateway(w, "Identity provider unavailable")
}
