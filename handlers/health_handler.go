package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/utils"
)

// HealthHandler reports process liveness
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]string{"status": "ok"})
	}
}

// ReadyHandler reports readiness, including database connectivity
func ReadyHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.HealthCheck(r.Context()); err != nil {
			deps.Logger.Error("readiness check failed", zap.Error(err))
			_ = utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
			return
		}
		_ = utils.WriteOK(w, map[string]string{"status": "ready"})
	}
}
