// Package reaper implements the expiry sweep: events past their retention
// window lose their photos (records and stored objects) and get flagged
// expired. Event records themselves are kept for the photographer's history.
package reaper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mholecek/snapmatch/internal/constants"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/mholecek/snapmatch/internal/storage"
)

// Stats summarizes one sweep.
type Stats struct {
	EventsExpired   int
	PhotosDeleted   int
	StorageFailures int
}

// Reaper periodically retires expired events.
type Reaper struct {
	events   database.EventStore
	photos   database.PhotoStore
	store    storage.Store
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithInterval overrides the sweep cadence.
func WithInterval(d time.Duration) Option {
	return func(r *Reaper) { r.interval = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reaper) { r.now = now }
}

// New creates a reaper.
func New(events database.EventStore, photos database.PhotoStore, store storage.Store, opts ...Option) *Reaper {
	r := &Reaper{
		events:   events,
		photos:   photos,
		store:    store,
		interval: constants.ReapInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the periodic sweep loop.
func (r *Reaper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					log.Printf("[reaper] sweep failed: %v", err)
				}
			}
		}
	}()
}

// Stop terminates the sweep loop.
func (r *Reaper) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// RunOnce performs a single sweep. Events are processed independently; one
// event's failure does not block the rest.
func (r *Reaper) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats

	expired, err := r.events.ListExpirable(ctx, r.now())
	if err != nil {
		return stats, fmt.Errorf("listing expirable events: %w", err)
	}
	if len(expired) == 0 {
		return stats, nil
	}
	log.Printf("[reaper] sweeping %d expired event(s)", len(expired))

	for _, event := range expired {
		deleted, storageFailures, err := r.PurgePhotos(ctx, event.ID)
		stats.PhotosDeleted += deleted
		stats.StorageFailures += storageFailures
		if err != nil {
			log.Printf("[reaper] event %s: %v", event.ID, err)
			continue
		}

		if err := r.events.MarkExpired(ctx, event.ID); err != nil {
			log.Printf("[reaper] event %s: marking expired: %v", event.ID, err)
			continue
		}
		stats.EventsExpired++
		log.Printf("[reaper] event %s expired, %d photo(s) removed", event.ID, deleted)
	}
	return stats, nil
}

// PurgePhotos deletes all of an event's photos: stored objects first
// (best effort, failures logged), then the records in bulk. The same policy
// backs the photographer-initiated event delete.
func (r *Reaper) PurgePhotos(ctx context.Context, eventID string) (deleted, storageFailures int, err error) {
	photos, err := r.photos.ListPhotosByEvent(ctx, eventID)
	if err != nil {
		return 0, 0, fmt.Errorf("listing photos: %w", err)
	}

	for _, photo := range photos {
		if err := r.store.Delete(ctx, photo.StorageKey); err != nil {
			// A stuck blob must not keep the records alive.
			log.Printf("[reaper] deleting object %s: %v", photo.StorageKey, err)
			storageFailures++
		}
	}

	if err := r.photos.DeletePhotosByEvent(ctx, eventID); err != nil {
		return 0, storageFailures, fmt.Errorf("deleting photo records: %w", err)
	}
	return len(photos), storageFailures, nil
}

// DeletePhoto removes a single photo and its stored object, photographer
// initiated. Storage failures are logged and do not block record removal.
// Returns gallery.ErrPhotoNotFound for unknown or already-deleted photos.
func (r *Reaper) DeletePhoto(ctx context.Context, photoID string) error {
	photo, err := r.photos.GetPhoto(ctx, photoID)
	if err != nil {
		return fmt.Errorf("loading photo: %w", err)
	}
	if photo == nil {
		return gallery.ErrPhotoNotFound
	}

	if err := r.store.Delete(ctx, photo.StorageKey); err != nil {
		log.Printf("[reaper] deleting object %s: %v", photo.StorageKey, err)
	}
	return r.photos.DeletePhoto(ctx, photoID)
}

// DeleteEvent retires an event on the photographer's request: photos and
// stored objects go, the event record stays with its expired flag set, same
// as after a sweep.
func (r *Reaper) DeleteEvent(ctx context.Context, eventID string) error {
	if _, _, err := r.PurgePhotos(ctx, eventID); err != nil {
		return err
	}
	if err := r.events.MarkExpired(ctx, eventID); err != nil {
		return fmt.Errorf("marking event expired: %w", err)
	}
	return nil
}
