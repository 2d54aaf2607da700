package handlers

import (
	"go.uber.org/zap"

	"net/http"

	"github.com/chapters-studio/portfolio-api/services"
	"github.com/chapters-studio/portfolio-api/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		_ = utils.WriteNotFound(w, err.Error())

	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, err.Error(), details)

	case services.IsUnauthorizedError(err):
		_ = utils.WriteUnauthorized(w, err.Error())

	case services.IsForbiddenError(err):
		_ = utils.WriteForbidden(w, err.Error())

	case services.IsConflictError(err):
		_ = utils.WriteConflict(w, err.Error(), details)

	case services.IsUpstreamError(err):
		// Upstream communication failures are a distinct 502, never
		// conflated with an authentication failure.
		logger.Error("upstream communication error", zap.Error(err))
		_ = utils.WriteBadGateway(w, "Identity provider unavailable")

	case services.IsInternalError(err):
		// Log internal errors but return a generic message
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		_ = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}
}
