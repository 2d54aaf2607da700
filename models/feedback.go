package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback represents visitor feedback left on a project
type Feedback struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	Username  string    `json:"username" db:"username"`
	Content   string    `json:"content" db:"content"`
	Rank      *int      `json:"rank,omitempty" db:"rank"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedback"
}

// NewFeedback creates a new Feedback instance with no rank assigned
func NewFeedback(projectID uuid.UUID, username, content string) *Feedback {
	return &Feedback{
		ID:        uuid.New(),
		ProjectID: projectID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
