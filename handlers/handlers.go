// Package handlers contains the HTTP handlers. Handlers stay thin: decode,
// validate, call a repository or client, map errors.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chapters-studio/portfolio-api/utils"
)

// decodeBody decodes a JSON request body into dst and validates it.
// On failure the 400 response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return false
	}
	return true
}
