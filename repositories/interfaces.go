// Package repositories defines the narrow persistence contracts the
// handlers depend on. The postgres subpackage provides the production
// implementations.
package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/chapters-studio/portfolio-api/models"
)

// ProjectPage is one page of a project listing together with the total
// number of matching rows
type ProjectPage struct {
	Projects []*models.Project
	Total    int
	Page     int
	PageSize int
}

// ProjectRepository handles project data operations
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)

	// List retrieves a filtered, sorted page of projects
	List(ctx context.Context, filter models.ProjectFilter, sort models.ProjectSort, page, pageSize int) (*ProjectPage, error)

	// Search retrieves projects whose name or description matches the query
	Search(ctx context.Context, query string) ([]*models.Project, error)

	// Update updates a project
	Update(ctx context.Context, project *models.Project) error

	// SetFeatured flips the featured flag of a project
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*models.Project, error)

	// Delete deletes a project
	Delete(ctx context.Context, id uuid.UUID) error
}

// FeedbackRepository handles feedback data operations
type FeedbackRepository interface {
	// Create creates a new feedback entry
	Create(ctx context.Context, feedback *models.Feedback) error

	// GetByID retrieves a feedback entry by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error)

	// ListByProject retrieves all feedback for a project, newest first
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Feedback, error)

	// SetRank updates the rank of a feedback entry
	SetRank(ctx context.Context, id uuid.UUID, rank int) (*models.Feedback, error)

	// Delete deletes a feedback entry
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository handles account data operations. Used only by the
// signup/login/profile flows, never by the access guard.
type UserRepository interface {
	// Create creates a new account
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves an account by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update updates an account
	Update(ctx context.Context, user *models.User) error
}
