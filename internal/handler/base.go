// Package handler provides the HTTP surface of the engine.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/arosling/stageside/internal/errors"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// JSON writes a JSON response with the appropriate headers.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// APIError writes an API error response in a consistent format.
func APIError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// WriteDomainError maps an application error onto its HTTP status. Unknown
// errors are logged and reported as a generic 500.
func WriteDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		JSON(w, appErr.HTTPStatus(), appErr.ToResponse())
		return
	}
	logger.Error("unhandled error", zap.Error(err))
	APIError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
