package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gdg-garage/badge-api/internal/models"
)

// apiError is returned from huma operations so error bodies keep the
// {"error": ..., "details": ...} shape instead of problem+json.
type apiError struct {
	status  int
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func newAPIError(status int, body models.ErrorResponse) *apiError {
	return &apiError{status: status, Message: body.Error, Details: body.Details}
}

func (e *apiError) Error() string {
	return e.Message
}

func (e *apiError) GetStatus() int {
	return e.status
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
