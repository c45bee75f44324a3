package badges

import (
	"errors"
	"net/http"

	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/models"
)

// ValidationError reports malformed client input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError wraps a failed call to the record store. It is never retried.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

const upstreamFailureMessage = "Failed to fetch badges"

// ErrorResponse maps a lookup error to the status code and body returned by
// every transport.
func ErrorResponse(err error) (int, models.ErrorResponse) {
	var (
		validationErr *ValidationError
		cfgErr        *config.ConfigurationError
		upstreamErr   *UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, models.ErrorResponse{Error: validationErr.Message}
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, models.ErrorResponse{Error: cfgErr.Error()}
	case errors.As(err, &upstreamErr):
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   upstreamFailureMessage,
			Details: upstreamErr.Err.Error(),
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   upstreamFailureMessage,
			Details: err.Error(),
		}
	}
}
