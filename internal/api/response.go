package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sharebite/sharebite/internal/foodshare"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// serviceErrorStatus maps a lifecycle error to an HTTP status code.
func serviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, foodshare.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, foodshare.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, foodshare.ErrUnavailable),
		errors.Is(err, foodshare.ErrDuplicateRequest),
		errors.Is(err, foodshare.ErrAlreadyAllocated),
		errors.Is(err, foodshare.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, foodshare.ErrCommitFailed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError reports a failed lifecycle operation. Internal errors
// are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	status := serviceErrorStatus(err)
	switch status {
	case http.StatusInternalServerError:
		slog.Error("failed to "+action, "error", err)
		jsonError(w, status, "failed to "+action)
	case http.StatusServiceUnavailable:
		slog.Warn("commit failed", "action", action, "error", err)
		jsonError(w, status, "could not save changes, please retry")
	default:
		jsonError(w, status, err.Error())
	}
}
