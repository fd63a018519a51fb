// Package database defines the persistence interfaces for events and photos.
// The postgres subpackage provides the production implementation, the mock
// subpackage an in-memory one for tests.
package database

import (
	"context"
	"time"

	"github.com/mholecek/snapmatch/internal/gallery"
)

// EventStore provides access to event records.
type EventStore interface {
	// CreateEvent persists a new event
	CreateEvent(ctx context.Context, event *gallery.Event) error
	// GetEvent retrieves an event by ID, returns nil if not found
	GetEvent(ctx context.Context, id string) (*gallery.Event, error)
	// ListEventsByPhotographer returns a photographer's events, newest first
	ListEventsByPhotographer(ctx context.Context, photographerID string) ([]gallery.Event, error)
	// ListExpirable returns events whose retention window has ended but whose
	// expired flag is still unset
	ListExpirable(ctx context.Context, now time.Time) ([]gallery.Event, error)
	// MarkExpired sets the expired flag on an event. Event records are never
	// deleted; retiring an event only removes its photos.
	MarkExpired(ctx context.Context, id string) error
}

// PhotoStore provides access to photo records and their descriptors.
type PhotoStore interface {
	// CreatePhoto persists a new photo record (status processing, no descriptors)
	CreatePhoto(ctx context.Context, photo *gallery.Photo) error
	// GetPhoto retrieves a photo by ID with its descriptors, returns nil if not found
	GetPhoto(ctx context.Context, id string) (*gallery.Photo, error)
	// ListPhotosByEvent returns an event's photos with descriptors, newest first
	ListPhotosByEvent(ctx context.Context, eventID string) ([]gallery.Photo, error)
	// SetPhotoResult records the outcome of descriptor extraction. It only
	// applies to photos still in processing status; ready and failed are terminal.
	SetPhotoResult(ctx context.Context, id string, status gallery.Status, descriptors []gallery.Descriptor) error
	// DeletePhoto removes a photo record and its descriptors.
	// Returns gallery.ErrPhotoNotFound if the photo does not exist.
	DeletePhoto(ctx context.Context, id string) error
	// DeletePhotosByEvent removes all photo records for an event in bulk
	DeletePhotosByEvent(ctx context.Context, eventID string) error
	// CountPhotosByEvent returns the number of photos in an event
	CountPhotosByEvent(ctx context.Context, eventID string) (int, error)
}
