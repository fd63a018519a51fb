package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/gallery"
)

func TestEventsCreate(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	req := jsonRequest(t, http.MethodPost, "/api/v1/events", map[string]any{
		"name":            "Letní svatba",
		"photographer_id": "photographer-1",
		"retention_days":  60,
	})
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assertStatusCode(t, rec, http.StatusCreated)

	var event gallery.Event
	parseJSONResponse(t, rec, &event)
	if _, err := uuid.Parse(event.ID); err != nil {
		t.Errorf("expected a generated uuid, got %q", event.ID)
	}
	if event.Name != "Letní svatba" {
		t.Errorf("unexpected name %q", event.Name)
	}
	if event.Expired {
		t.Error("new event must not be expired")
	}

	// Expiry is fixed at creation: retention days from now, give or take.
	wantExpiry := time.Now().AddDate(0, 0, 60)
	if diff := event.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected expiry around %v, got %v", wantExpiry, event.ExpiresAt)
	}

	stored, _ := f.events.GetEvent(req.Context(), event.ID)
	if stored == nil {
		t.Fatal("event not persisted")
	}
}

func TestEventsCreate_Validation(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "missing name",
			body: map[string]any{"photographer_id": "p1", "retention_days": 30},
			want: "name is required",
		},
		{
			name: "blank name",
			body: map[string]any{"name": "   ", "photographer_id": "p1", "retention_days": 30},
			want: "name is required",
		},
		{
			name: "missing photographer",
			body: map[string]any{"name": "Wedding", "retention_days": 30},
			want: "photographer_id is required",
		},
		{
			name: "retention outside the configured windows",
			body: map[string]any{"name": "Wedding", "photographer_id": "p1", "retention_days": 45},
			want: "retention_days must be one of [30 60 90]",
		},
		{
			name: "zero retention",
			body: map[string]any{"name": "Wedding", "photographer_id": "p1"},
			want: "retention_days must be one of [30 60 90]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/api/v1/events", tt.body)
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			assertStatusCode(t, rec, http.StatusBadRequest)
			assertJSONError(t, rec, tt.want)
		})
	}
}

func TestEventsGet(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	eventID := f.seedEvent("Conference")
	f.photos.AddPhoto(gallery.Photo{ID: "p1", EventID: eventID, Status: gallery.StatusReady})
	f.photos.AddPhoto(gallery.Photo{ID: "p2", EventID: eventID, Status: gallery.StatusProcessing})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/events/"+eventID, nil),
		map[string]string{"id": eventID})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var event gallery.Event
	parseJSONResponse(t, rec, &event)
	if event.ID != eventID {
		t.Errorf("expected event %s, got %s", eventID, event.ID)
	}
	if event.PhotoCount != 2 {
		t.Errorf("expected photo_count 2, got %d", event.PhotoCount)
	}
}

func TestEventsGet_NotFoundAndInvalid(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/events/"+uuid.NewString(), nil),
		map[string]string{"id": uuid.NewString()})
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	assertStatusCode(t, rec, http.StatusNotFound)

	req = requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/api/v1/events/nonsense", nil),
		map[string]string{"id": "nonsense"})
	rec = httptest.NewRecorder()
	h.Get(rec, req)
	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "invalid event id")
}

func TestEventsList(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	f.seedEvent("First")
	f.seedEvent("Second")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?photographer_id=photographer-1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var result struct {
		Events []gallery.Event `json:"events"`
	}
	parseJSONResponse(t, rec, &result)
	if len(result.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(result.Events))
	}
}

func TestEventsList_RequiresPhotographer(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "photographer_id is required")
}

func TestEventsDelete_KeepsRecord(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	eventID := f.seedEvent("Retired")
	f.photos.AddPhoto(gallery.Photo{ID: "p1", EventID: eventID, Status: gallery.StatusReady})

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/events/"+eventID, nil),
		map[string]string{"id": eventID})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	event, _ := f.events.GetEvent(req.Context(), eventID)
	if event == nil {
		t.Fatal("event record must survive deletion")
	}
	if !event.Expired {
		t.Error("expected the expired flag set")
	}
	if n, _ := f.photos.CountPhotosByEvent(req.Context(), eventID); n != 0 {
		t.Errorf("expected photos removed, got %d", n)
	}
}

func TestEventsDelete_Unknown(t *testing.T) {
	f := newFixture(nil)
	h := NewEventsHandler(testConfig(), f.events, f.photos, f.reaper)

	id := uuid.NewString()
	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/api/v1/events/"+id, nil),
		map[string]string{"id": id})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}
