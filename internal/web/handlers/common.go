package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mholecek/snapmatch/internal/gallery"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps the shared gallery errors onto HTTP statuses and
// reports whether it handled the error. Handlers deal with their own errors
// first and fall through here for the common ones.
func respondDomainError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, gallery.ErrInvalidEventID):
		respondError(w, http.StatusBadRequest, "invalid event id")
	case errors.Is(err, gallery.ErrEventNotFound):
		respondError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, gallery.ErrEventExpired):
		respondError(w, http.StatusGone, "event expired")
	case errors.Is(err, gallery.ErrPhotoNotFound):
		respondError(w, http.StatusNotFound, "photo not found")
	default:
		return false
	}
	return true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
