package models

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a showcased portfolio project
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	Visibility  bool      `json:"visibility" db:"visibility"`
	Featured    bool      `json:"featured" db:"featured"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new Project instance, visible and not featured by default
func NewProject(name, description, image string) *Project {
	now := time.Now()
	return &Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Image:       image,
		Visibility:  true,
		Featured:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProjectUpdate holds the mutable fields of a project; nil fields are left unchanged
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Visibility  *bool   `json:"visibility,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
}

// Apply copies the non-nil update fields onto the project and bumps UpdatedAt
func (p *Project) Apply(update ProjectUpdate) {
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Image != nil {
		p.Image = *update.Image
	}
	if update.Visibility != nil {
		p.Visibility = *update.Visibility
	}
	if update.Featured != nil {
		p.Featured = *update.Featured
	}
	p.UpdatedAt = time.Now()
}

// ProjectFilter narrows project listings
type ProjectFilter struct {
	Name       string // substring match on name, empty matches all
	Visibility *bool  // nil matches both visible and hidden
}

// SortDirection is the direction of a project listing sort
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

// ProjectSort describes the ordering of a project listing
type ProjectSort struct {
	Field     string
	Direction SortDirection
}
