package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chapters-studio/portfolio-api/app"
	"github.com/chapters-studio/portfolio-api/models"
	"github.com/chapters-studio/portfolio-api/utils"
)

// CreateFeedbackRequest is the payload for leaving feedback on a project
type CreateFeedbackRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Content  string `json:"content" validate:"required,min=1"`
}

// SetRankRequest updates the curation rank of a feedback entry
type SetRankRequest struct {
	Rank int `json:"rank" validate:"gte=0"`
}

// CreateFeedbackHandler records feedback against a project. The project must
// exist; feedback on an unknown project is a 404, not an orphaned row.
func CreateFeedbackHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		var req CreateFeedbackRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if _, err := deps.Projects.GetByID(r.Context(), projectID); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		feedback := models.NewFeedback(projectID, req.Username, req.Content)
		if err := deps.Feedback.Create(r.Context(), feedback); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("feedback created",
			zap.String("feedback_id", feedback.ID.String()),
			zap.String("project_id", projectID.String()))
		_ = utils.WriteCreated(w, feedback)
	}
}

// ListFeedbackHandler returns all feedback for a project, newest first
func ListFeedbackHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := parseUUIDParam(w, r, "id")
		if !ok {
			return
		}

		if _, err := deps.Projects.GetByID(r.Context(), projectID); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		feedback, err := deps.Feedback.ListByProject(r.Context(), projectID)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, feedback)
	}
}

// SetFeedbackRankHandler updates the curation rank of a feedback entry
func SetFeedbackRankHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "feedbackID")
		if !ok {
			return
		}

		var req SetRankRequest
		if !decodeBody(w, r, &req) {
			return
		}

		feedback, err := deps.Feedback.SetRank(r.Context(), id, req.Rank)
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteOK(w, feedback)
	}
}

// DeleteFeedbackHandler removes a feedback entry
func DeleteFeedbackHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "feedbackID")
		if !ok {
			return
		}

		if err := deps.Feedback.Delete(r.Context(), id); err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("feedback deleted", zap.String("feedback_id", id.String()))
		utils.WriteNoContent(w)
	}
}
