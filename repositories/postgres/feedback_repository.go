package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/repositories"
	"github.com/chapters-studio/portfolio-api/services"
)

const feedbackColumns = "id, project_id, username, content, rank, created_at"

// FeedbackRepository implements the repositories.FeedbackRepository interface
type FeedbackRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB, logger *zap.Logger) repositories.FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	query := `
		INSERT INTO feedback (` + feedbackColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		feedback.ID,
		feedback.ProjectID,
		feedback.Username,
		feedback.Content,
		feedback.Rank,
		feedback.CreatedAt,
	)
	if err != nil {
		return services.WrapInternal("failed to create feedback", err)
	}

	r.logger.Debug("feedback created",
		zap.String("id", feedback.ID.String()),
		zap.String("project_id", feedback.ProjectID.String()))
	return nil
}

// GetByID retrieves a feedback entry by ID
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

	feedback, err := scanFeedback(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrFeedbackNotFound
		}
		return nil, services.WrapInternal("failed to get feedback", err)
	}

	return feedback, nil
}

// ListByProject retrieves all feedback for a project, newest first
func (r *FeedbackRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, services.WrapInternal("failed to list feedback", err)
	}
	defer rows.Close()

	entries := []*models.Feedback{}
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, services.WrapInternal("failed to scan feedback", err)
		}
		entries = append(entries, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, services.WrapInternal("failed to list feedback", err)
	}

	return entries, nil
}

// SetRank updates the rank of a feedback entry
func (r *FeedbackRepository) SetRank(ctx context.Context, id uuid.UUID, rank int) (*models.Feedback, error) {
	query := `
		UPDATE feedback
		SET rank = $2
		WHERE id = $1
		RETURNING ` + feedbackColumns

	feedback, err := scanFeedback(r.db.QueryRowContext(ctx, query, id, rank))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrFeedbackNotFound
		}
		return nil, services.WrapInternal("failed to set feedback rank", err)
	}

	return feedback, nil
}

// Delete deletes a feedback entry
func (r *FeedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return services.WrapInternal("failed to delete feedback", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return services.WrapInternal("failed to delete feedback", err)
	}
	if affected == 0 {
		return services.ErrFeedbackNotFound
	}

	r.logger.Debug("feedback deleted", zap.String("id", id.String()))
	return nil
}

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	feedback := &models.Feedback{}
	err := row.Scan(
		&feedback.ID,
		&feedback.ProjectID,
		&feedback.Username,
		&feedback.Content,
		&feedback.Rank,
		&feedback.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return feedback, nil
}
