// Package match implements selfie matching: extract one descriptor from the
// submitted selfie and find the event's photos containing that face.
package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mholecek/snapmatch/internal/constants"
	"github.com/mholecek/snapmatch/internal/database"
	"github.com/mholecek/snapmatch/internal/extractor"
	"github.com/mholecek/snapmatch/internal/gallery"
)

// ErrNoFaceDetected means the selfie itself had no detectable face. This is
// a client error, distinct from a valid empty match result.
var ErrNoFaceDetected = errors.New("no face detected in selfie")

// Result is the outcome of a match query.
type Result struct {
	// Photos containing the selfie's face, newest first.
	Photos []gallery.Photo
	// Pending counts the event's photos still awaiting extraction at scan
	// time. Those photos cannot match yet; the count lets a caller tell
	// "no match" from "no match so far".
	Pending int
}

// Engine answers "which photos contain this face" for one event at a time.
type Engine struct {
	events    database.EventStore
	photos    database.PhotoStore
	extractor extractor.Extractor
}

// New creates a match engine.
func New(events database.EventStore, photos database.PhotoStore, ext extractor.Extractor) *Engine {
	return &Engine{events: events, photos: photos, extractor: ext}
}

// Match extracts a descriptor from the selfie synchronously (the caller is
// waiting) and scans the event's stored descriptors against it.
func (e *Engine) Match(ctx context.Context, eventID string, selfie []byte) (*Result, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, gallery.ErrInvalidEventID
	}
	event, err := e.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event == nil {
		return nil, gallery.ErrEventNotFound
	}
	if event.Expired {
		return nil, gallery.ErrEventExpired
	}

	descriptors, err := e.extractor.Extract(ctx, selfie)
	if err != nil {
		return nil, fmt.Errorf("extracting selfie descriptor: %w", err)
	}
	if len(descriptors) == 0 {
		return nil, ErrNoFaceDetected
	}
	// A selfie is assumed to contain exactly one principal subject.
	query := descriptors[0]

	photos, err := e.photos.ListPhotosByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading event photos: %w", err)
	}

	result := &Result{}
	for _, p := range photos {
		if p.Status == gallery.StatusProcessing {
			result.Pending++
		}
	}

	result.Photos = scan(query, photos)
	return result, nil
}

// scan returns the photos whose descriptors contain the query face,
// preserving input (newest first) order. Small events get a plain linear
// scan; larger ones go through an HNSW index to narrow the candidates first.
func scan(query gallery.Descriptor, photos []gallery.Photo) []gallery.Photo {
	if len(photos) < constants.HNSWMinPhotos {
		var matches []gallery.Photo
		for _, p := range photos {
			if gallery.Matches(query, p.Descriptors, constants.MatchThreshold) {
				matches = append(matches, p)
			}
		}
		return matches
	}

	idx := gallery.BuildDescriptorIndex(photos)
	candidates := idx.Candidates(query, constants.HNSWSearchLimit)

	// The exact threshold test still decides; the index only prunes.
	matched := make(map[int]bool, len(candidates))
	for _, i := range candidates {
		if gallery.Matches(query, photos[i].Descriptors, constants.MatchThreshold) {
			matched[i] = true
		}
	}

	var matches []gallery.Photo
	for i := range photos {
		if matched[i] {
			matches = append(matches, photos[i])
		}
	}
	return matches
}
