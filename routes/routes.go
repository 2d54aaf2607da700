package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthHandler())
	r.Get("/readyz", handlers.ReadyHandler(deps))

	guard := deps.AuthMiddleware

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Project catalog. Reads are public, writes need an account, and
		// curation (featuring) is admin only.
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", handlers.ListProjectsHandler(deps))
			r.Get("/search", handlers.SearchProjectsHandler(deps))
			r.Get("/{id}", handlers.GetProjectHandler(deps))
			r.Get("/{id}/feedback", handlers.ListFeedbackHandler(deps))
			r.Post("/{id}/feedback", handlers.CreateFeedbackHandler(deps))

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireRoles("user", "admin"))
				r.Post("/", handlers.CreateProjectHandler(deps))
				r.Put("/{id}", handlers.UpdateProjectHandler(deps))
				r.Delete("/{id}", handlers.DeleteProjectHandler(deps))
			})

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireRoles("admin"))
				r.Patch("/{id}/featured", handlers.SetProjectFeaturedHandler(deps))
			})
		})

		// Feedback curation (admin only)
		r.Route("/feedback", func(r chi.Router) {
			r.Use(guard.RequireRoles("admin"))
			r.Patch("/{feedbackID}/rank", handlers.SetFeedbackRankHandler(deps))
			r.Delete("/{feedbackID}", handlers.DeleteFeedbackHandler(deps))
		})

		// Account lifecycle
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", handlers.SignupHandler(deps))
			r.Post("/login", handlers.LoginHandler(deps))
			r.Post("/refresh", handlers.RefreshHandler(deps))

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAuth)
				r.Get("/me", handlers.GetProfileHandler(deps))
				r.Put("/me", handlers.UpdateProfileHandler(deps))
			})
		})

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", handlers.AdminLoginHandler(deps))

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireRoles("admin"))
				r.Get("/keycloak/users", handlers.ListRealmUsersHandler(deps))
				r.Get("/keycloak/users/{id}", handlers.GetRealmUserHandler(deps))
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"The requested resource does not exist"}`))
	})

	return r
}
