package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/auth"
	"github.com/chapters-studio/portfolio-api/middleware"
	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/repositories"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockProjectRepository is a mock implementation of repositories.ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, filter models.ProjectFilter, sort models.ProjectSort, page, pageSize int) (*repositories.ProjectPage, error) {
	args := m.Called(ctx, filter, sort, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.ProjectPage), args.Error(1)
}

func (m *MockProjectRepository) Search(ctx context.Context, query string) ([]*models.Project, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*models.Project, error) {
	args := m.Called(ctx, id, featured)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFeedbackRepository is a mock implementation of repositories.FeedbackRepository
type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Feedback, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) SetRank(ctx context.Context, id uuid.UUID, rank int) (*models.Feedback, error) {
	args := m.Called(ctx, id, rank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *MockFeedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// testDeps bundles mocked dependencies for handler tests
type testDeps struct {
	*app.Dependencies
	users    *MockUserRepository
	projects *MockProjectRepository
	feedback *MockFeedbackRepository
}

func newTestDeps(t *testing.T) *testDeps {
	issuer, err := auth.NewTokenIssuer("handler-test-secret", "HS256", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	users := new(MockUserRepository)
	projects := new(MockProjectRepository)
	feedback := new(MockFeedbackRepository)
	logger := zap.NewNop()
	verifier := auth.VerifierChain{auth.NewLocalVerifier(issuer)}

	return &testDeps{
		Dependencies: &app.Dependencies{
			Logger:         logger,
			Users:          users,
			Projects:       projects,
			Feedback:       feedback,
			Hasher:         auth.NewPasswordHasher(bcrypt.MinCost),
			TokenIssuer:    issuer,
			Verifier:       verifier,
			AuthMiddleware: middleware.NewAuthMiddleware(verifier, logger),
		},
		users:    users,
		projects: projects,
		feedback: feedback,
	}
}
