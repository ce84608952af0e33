package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/taskmanager/internal/models"
	"go.uber.org/zap"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code: validation failures are 400,
// authentication failures 401, missing resources 404 and anything else 500.
// Internal errors are logged and replaced by a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Please authenticate."})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// invalidBody is returned for request bodies that are not the expected JSON.
func invalidBody() error {
	return &models.ValidationError{Fields: map[string]string{"body": "invalid JSON body"}}
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalidBody()
	}
	return nil
}
