package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/utils"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateProjectRequest is the payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
}

// SetFeaturedRequest flips the featured flag of a project
type SetFeaturedRequest struct {
	Featured bool `json:"featured"`
}

// ProjectListResponse is one page of projects
type ProjectListResponse struct {
	Projects []*models.Project `json:"projects"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// parseUUIDParam extracts a UUID path parameter. On failure the 400 response
// has already been written.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid "+name+" parameter", nil)
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = defaultPage
	pageSize = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ListProjectsHandler returns a filtered, sorted page of projects
func ListProjectsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := models.ProjectFilter{Name: q.Get("name")}
		if raw := q.Get("visibility"); raw != "" {
			visible, err := strconv.ParseBool(raw)
			if err != nil {
				_ = utils.WriteBadRequest(w, "Invalid visibility parameter", nil)
				return
			}
			filter.Visibility = &visible
		}

		sort := models.ProjectSort{
			Field:     q.Get("sort_by"),
			Direction: models.SortAscending,
		}
		if q.Get("sort_dir") == "desc" {
			sort.Direction = models.SortDescending
		}

		page, pageSize := parsePagination(r)

		result, err := deps.Projects.List(r.Context(), filter, sort, page, pageSize)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, ProjectListResponse{
			Projects: result.Projects,
			Total:    result.Total,
			Page:     result.Page,
			PageSize: result.PageSize,
		})
	}
}

// SearchProjectsHandler returns visible projects matching the query string
func SearchProjectsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			_ = utils.WriteBadRequest(w, "Missing q parameter", nil)
			return
		}

		projects, err := deps.Projects.Search(r.Context(), query)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, projects)
	}
}

// GetProjectHandler returns a single project by ID
func GetProjectHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		project, err := deps.Projects.GetByID(r.Context(), id)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, project)
	}
}

// CreateProjectHandler creates a new project
func CreateProjectHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeBody(w, r, &req) {
			return
		}

		project := models.NewProject(req.Name, req.Description, req.Image)
		if err := deps.Projects.Create(r.Context(), project); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("project created",
			zap.String("project_id", project.ID.String()),
			zap.String("name", project.Name))
		_ = utils.WriteCreated(w, project)
	}
}

// UpdateProjectHandler applies a partial update to a project
func UpdateProjectHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		var update models.ProjectUpdate
		if !decodeBody(w, r, &update) {
			return
		}

		project, err := deps.Projects.GetByID(r.Context(), id)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		project.Apply(update)
		if err := deps.Projects.Update(r.Context(), project); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, project)
	}
}

// SetProjectFeaturedHandler flips the featured flag of a project
func SetProjectFeaturedHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		var req SetFeaturedRequest
		if !decodeBody(w, r, &req) {
			return
		}

		project, err := deps.Projects.SetFeatured(r.Context(), id, req.Featured)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, project)
	}
}

// DeleteProjectHandler deletes a project and, via cascade, its feedback
func DeleteProjectHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		if err := deps.Projects.Delete(r.Context(), id); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("project deleted", zap.String("project_id", id.String()))
		utils.WriteNoContent(w)
	}
}
