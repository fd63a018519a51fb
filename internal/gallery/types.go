// Package gallery contains the core domain model: events, photos and the
// face descriptors extracted from them.
package gallery

import (
	"errors"
	"time"
)

// Shared domain errors surfaced by the ingestion and match paths.
var (
	ErrInvalidEventID = errors.New("invalid event id")
	ErrEventNotFound  = errors.New("event not found")
	ErrEventExpired   = errors.New("event expired")
	ErrPhotoNotFound  = errors.New("photo not found")
)

// Status tracks whether background descriptor extraction has completed for a photo.
type Status string

// Photo processing states. Ready and Failed are terminal; descriptors are
// written exactly once, on the transition out of Processing.
const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Descriptor is a fixed-dimension face feature vector produced by the
// descriptor extractor. Two descriptors within MatchThreshold Euclidean
// distance of each other are considered the same person.
type Descriptor []float32

// Event is a photographer's event. Events are never deleted by the expiry
// sweep; only their photos are, after which Expired flips to true.
type Event struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PhotographerID string    `json:"photographer_id"`
	RetentionDays  int       `json:"retention_days"`
	ExpiresAt      time.Time `json:"expires_at"`
	Expired        bool      `json:"expired"`
	CreatedAt      time.Time `json:"created_at"`

	// PhotoCount is populated by list endpoints, not stored.
	PhotoCount int `json:"photo_count,omitempty"`
}

// Photo is a single uploaded image. URL points at the object store copy,
// StorageKey is the handle needed to delete it again.
type Photo struct {
	ID          string       `json:"id"`
	EventID     string       `json:"event_id"`
	URL         string       `json:"url"`
	StorageKey  string       `json:"-"`
	Status      Status       `json:"status"`
	Descriptors []Descriptor `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HasDescriptors reports whether any face was found in the photo.
func (p *Photo) HasDescriptors() bool {
	return len(p.Descriptors) > 0
}
