package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/reaper"
)

// EventsHandler handles event lifecycle endpoints
type EventsHandler struct {
	config *config.Config
	events database.EventStore
	photos database.PhotoStore
	reaper *reaper.Reaper
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(cfg *config.Config, events database.EventStore, photos database.PhotoStore, rp *reaper.Reaper) *EventsHandler {
	return &EventsHandler{config: cfg, events: events, photos: photos, reaper: rp}
}

type createEventRequest struct {
	Name           string `json:"name"`
	PhotographerID string `json:"photographer_id"`
	RetentionDays  int    `json:"retention_days"`
}

// Create handles POST /events. The retention window must be one of the
// configured choices; the expiry timestamp is fixed at creation time.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PhotographerID == "" {
		respondError(w, http.StatusBadRequest, "photographer_id is required")
		return
	}
	if !h.config.Retention.Allows(req.RetentionDays) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("retention_days must be one of %v", h.config.Retention.AllowedDays))
		return
	}

	now := time.Now().UTC()
	event := &gallery.Event{
		ID:             uuid.NewString(),
		Name:           req.Name,
		PhotographerID: req.PhotographerID,
		RetentionDays:  req.RetentionDays,
		ExpiresAt:      now.AddDate(0, 0, req.RetentionDays),
		CreatedAt:      now,
	}
	if err := h.events.CreateEvent(r.Context(), event); err != nil {
		log.Printf("[web] creating event %q: %v", sanitizeForLog(req.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// Get handles GET /events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(eventID); err != nil {
		respondDomainError(w, gallery.ErrInvalidEventID)
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		log.Printf("[web] loading event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	if event == nil {
		respondDomainError(w, gallery.ErrEventNotFound)
		return
	}

	count, err := h.photos.CountPhotosByEvent(r.Context(), eventID)
	if err != nil {
		log.Printf("[web] counting photos for event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	event.PhotoCount = count

	respondJSON(w, http.StatusOK, event)
}

// List handles GET /events?photographer_id=. Expired events stay in the list;
// their photos are gone but the history remains.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	photographerID := r.URL.Query().Get("photographer_id")
	if photographerID == "" {
		respondError(w, http.StatusBadRequest, "photographer_id is required")
		return
	}

	events, err := h.events.ListEventsByPhotographer(r.Context(), photographerID)
	if err != nil {
		log.Printf("[web] listing events for %s: %v", sanitizeForLog(photographerID), err)
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []gallery.Event{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

// Delete handles DELETE /events/{id}. Photos and stored objects are removed,
// the event record itself is kept with its expired flag set.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(eventID); err != nil {
		respondDomainError(w, gallery.ErrInvalidEventID)
		return
	}

	event, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		log.Printf("[web] loading event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	if event == nil {
		respondDomainError(w, gallery.ErrEventNotFound)
		return
	}

	if err := h.reaper.DeleteEvent(r.Context(), eventID); err != nil {
		log.Printf("[web] deleting event %s: %v", sanitizeForLog(eventID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":      eventID,
		"expired": true,
	})
}
