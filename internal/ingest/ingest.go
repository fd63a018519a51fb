// Package ingest implements the upload orchestrator: store the blob, create
// the photo record, hand extraction to the background queue, respond
// immediately.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/queue"
	"github.com/mholecek/snapmatch/internal/storage"
)

// ErrNoImagesSucceeded means every image in the batch failed to persist.
// Partial failures are reported in Result.Failed instead.
var ErrNoImagesSucceeded = errors.New("no images could be saved")

// Result is the outcome of an upload batch.
type Result struct {
	Photos []gallery.Photo
	Failed int
}

// Ingestor validates upload requests and orchestrates per-image persistence.
type Ingestor struct {
	events database.EventStore
	photos database.PhotoStore
	store  storage.Store
	queue  *queue.Queue
}

// New creates an ingestor.
func New(events database.EventStore, photos database.PhotoStore, store storage.Store, q *queue.Queue) *Ingestor {
	return &Ingestor{events: events, photos: photos, store: store, queue: q}
}

// resolveActiveEvent validates the target event id and loads the event,
// rejecting expired targets. Uploads are a privilege of active events.
func (g *Ingestor) resolveActiveEvent(ctx context.Context, eventID string) (*gallery.Event, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, gallery.ErrInvalidEventID
	}
	event, err := g.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event == nil {
		return nil, gallery.ErrEventNotFound
	}
	if event.Expired {
		return nil, gallery.ErrEventExpired
	}
	return event, nil
}

// Upload persists each image to the object store and record store, enqueues
// descriptor extraction, and returns without waiting for it. A single bad
// image skips only itself; the call fails outright only when the target is
// invalid or every image failed.
func (g *Ingestor) Upload(ctx context.Context, eventID string, images [][]byte) (*Result, error) {
	event, err := g.resolveActiveEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, image := range images {
		photo, err := g.ingestOne(ctx, event, image)
		if err != nil {
			log.Printf("[ingest] image %d for event %s failed: %v", i, event.ID, err)
			result.Failed++
			continue
		}
		result.Photos = append(result.Photos, *photo)

		// The record exists; extraction is the queue's problem now.
		g.queue.Enqueue(queue.Task{PhotoID: photo.ID, Image: image})
	}

	if len(result.Photos) == 0 {
		return nil, ErrNoImagesSucceeded
	}
	return result, nil
}

// ingestOne uploads one image and creates its photo record in processing
// status with no descriptors.
func (g *Ingestor) ingestOne(ctx context.Context, event *gallery.Event, image []byte) (*gallery.Photo, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image payload")
	}

	obj, err := g.store.Store(ctx, image, event.Name)
	if err != nil {
		return nil, fmt.Errorf("storing image: %w", err)
	}

	photo := &gallery.Photo{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		URL:        obj.URL,
		StorageKey: obj.Key,
		Status:     gallery.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if err := g.photos.CreatePhoto(ctx, photo); err != nil {
		// Best effort: don't leave an orphaned blob behind the failed record.
		if delErr := g.store.Delete(ctx, obj.Key); delErr != nil {
			log.Printf("[ingest] orphan cleanup failed for %s: %v", obj.Key, delErr)
		}
		return nil, fmt.Errorf("creating photo record: %w", err)
	}
	return photo, nil
}
