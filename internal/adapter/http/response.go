package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foodops/localfood/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}

// respondServiceError maps domain error types onto HTTP statuses: field
// validation failures become 400 with the field named, missing entities
// become 404, everything else is a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: vErr.Field, Message: vErr.Message},
		})
		return
	}
	if domain.IsNotFound(err) {
		respondError(w, err.Error(), http.StatusNotFound, nil)
		return
	}
	respondError(w, "Internal server error", http.StatusInternalServerError, nil)
}
