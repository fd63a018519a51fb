package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mholecek/snapmatch/internal/constants"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/match"
)

// MatchHandler handles the attendee selfie match endpoint
type MatchHandler struct {
	engine *match.Engine
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(eng *match.Engine) *MatchHandler {
	return &MatchHandler{engine: eng}
}

// Match handles POST /events/{id}/match. The attendee is waiting on the
// response, so the selfie descriptor is extracted synchronously.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, _, err := r.FormFile("selfie")
	if err != nil {
		respondError(w, http.StatusBadRequest, "selfie is required")
		return
	}
	defer file.Close()

	selfie, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read selfie")
		return
	}

	result, err := h.engine.Match(r.Context(), eventID, selfie)
	if err != nil {
		if respondDomainError(w, err) {
			return
		}
		if errors.Is(err, match.ErrNoFaceDetected) {
			respondError(w, http.StatusBadRequest, "no face detected in selfie")
			return
		}
		log.Printf("[web] matching selfie for event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "match failed")
		return
	}

	photos := result.Photos
	if photos == nil {
		photos = []gallery.Photo{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"photos":  photos,
		"pending": result.Pending,
	})
}
