package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/repositories"
	"github.com/chapters-studio/portfolio-api/services"
)

const projectColumns = "id, name, description, image, visibility, featured, created_at, updated_at"

// sortFields whitelists the sortable project columns
var sortFields = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"featured":   "featured",
}

// ProjectRepository implements the repositories.ProjectRepository interface
type ProjectRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB, logger *zap.Logger) repositories.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Image,
		project.Visibility,
		project.Featured,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return services.WrapInternal("failed to create project", err)
	}

	r.logger.Debug("project created", zap.String("id", project.ID.String()), zap.String("name", project.Name))
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrProjectNotFound
		}
		return nil, services.WrapInternal("failed to get project", err)
	}

	return project, nil
}

// List retrieves a filtered, sorted page of projects
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter, sort models.ProjectSort, page, pageSize int) (*repositories.ProjectPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.Visibility != nil {
		args = append(args, *filter.Visibility)
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "created_at DESC"
	if col, ok := sortFields[sort.Field]; ok {
		direction := "ASC"
		if sort.Direction == models.SortDescending {
			direction = "DESC"
		}
		orderBy = col + " " + direction
	}

	countQuery := "SELECT COUNT(*) FROM projects" + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, services.WrapInternal("failed to count projects", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf("SELECT %s FROM projects%s ORDER BY %s LIMIT $%d OFFSET $%d",
		projectColumns, where, orderBy, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.WrapInternal("failed to list projects", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, services.WrapInternal("failed to scan projects", err)
	}

	return &repositories.ProjectPage{
		Projects: projects,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Search retrieves visible projects whose name or description matches the query
func (r *ProjectRepository) Search(ctx context.Context, query string) ([]*models.Project, error) {
	sqlQuery := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE visibility = TRUE AND (name ILIKE $1 OR description ILIKE $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, sqlQuery, "%"+query+"%")
	if err != nil {
		return nil, services.WrapInternal("failed to search projects", err)
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, services.WrapInternal("failed to scan projects", err)
	}
	return projects, nil
}

// Update updates a project
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, image = $4, visibility = $5, featured = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Image,
		project.Visibility,
		project.Featured,
		project.UpdatedAt,
	)
	if err != nil {
		return services.WrapInternal("failed to update project", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return services.WrapInternal("failed to update project", err)
	}
	if affected == 0 {
		return services.ErrProjectNotFound
	}

	return nil
}

// SetFeatured flips the featured flag of a project
func (r *ProjectRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*models.Project, error) {
	query := `
		UPDATE projects
		SET featured = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + projectColumns

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id, featured))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrProjectNotFound
		}
		return nil, services.WrapInternal("failed to set featured status", err)
	}

	return project, nil
}

// Delete deletes a project
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return services.WrapInternal("failed to delete project", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return services.WrapInternal("failed to delete project", err)
	}
	if affected == 0 {
		return services.ErrProjectNotFound
	}

	r.logger.Debug("project deleted", zap.String("id", id.String()))
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Image,
		&project.Visibility,
		&project.Featured,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func scanProjects(rows *sql.Rows) ([]*models.Project, error) {
	projects := []*models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
