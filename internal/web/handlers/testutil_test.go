package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/database/mock"
	"github.com/mholecek/snapmatch/internal/extractor"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/ingest"
	"github.com/mholecek/snapmatch/internal/match"
	"github.com/mholecek/snapmatch/internal/queue"
	"github.com/mholecek/snapmatch/internal/reaper"
	"github.com/mholecek/snapmatch/internal/storage"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Retention: config.RetentionConfig{
			AllowedDays: []int{30, 60, 90},
		},
	}
}

// fixture bundles the full handler dependency set around in-memory stores.
type fixture struct {
	events  *mock.MockEventStore
	photos  *mock.MockPhotoStore
	store   *storage.MockStore
	queue   *queue.Queue
	ingest  *ingest.Ingestor
	matcher *match.Engine
	reaper  *reaper.Reaper
}

// newFixture wires handlers against mock stores. The extraction queue is
// created but not started; enqueued work just sits there, which is exactly
// what upload tests need to observe the pre-extraction response.
func newFixture(ext extractor.Extractor) *fixture {
	f := &fixture{
		events: mock.NewMockEventStore(),
		photos: mock.NewMockPhotoStore(),
		store:  storage.NewMockStore(),
	}
	if ext == nil {
		ext = extractor.Func(func(ctx context.Context, image []byte) ([]gallery.Descriptor, error) {
			return nil, nil
		})
	}
	f.queue = queue.New(ext, f.photos)
	f.ingest = ingest.New(f.events, f.photos, f.store, f.queue)
	f.matcher = match.New(f.events, f.photos, ext)
	f.reaper = reaper.New(f.events, f.photos, f.store)
	return f
}

// seedEvent creates an active event and returns its id.
func (f *fixture) seedEvent(name string) string {
	id := uuid.NewString()
	f.events.AddEvent(gallery.Event{
		ID:             id,
		Name:           name,
		PhotographerID: "photographer-1",
		RetentionDays:  30,
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:      time.Now().UTC(),
	})
	return id
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest creates a request with a JSON body
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a request whose body carries the given files under
// a single form field name.
func multipartRequest(t *testing.T, method, path, field string, files ...[]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := writer.CreateFormFile(field, "photo-"+string(rune('a'+i))+".jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
