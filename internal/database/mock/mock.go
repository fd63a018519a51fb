// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mholecek/snapmatch/internal/gallery"
)

// MockEventStore is an in-memory implementation of database.EventStore.
type MockEventStore struct {
	mu     sync.RWMutex
	events map[string]*gallery.Event

	// Error injection
	CreateError      error
	GetError         error
	ListError        error
	MarkExpiredError error
}

// NewMockEventStore creates a new mock event store.
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{events: make(map[string]*gallery.Event)}
}

// AddEvent seeds the store with an event.
func (m *MockEventStore) AddEvent(event gallery.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = &event
}

func (m *MockEventStore) CreateEvent(ctx context.Context, event *gallery.Event) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *MockEventStore) GetEvent(ctx context.Context, id string) (*gallery.Event, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *ev
	return &copied, nil
}

func (m *MockEventStore) ListEventsByPhotographer(ctx context.Context, photographerID string) ([]gallery.Event, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []gallery.Event
	for _, ev := range m.events {
		if ev.PhotographerID == photographerID {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

func (m *MockEventStore) ListExpirable(ctx context.Context, now time.Time) ([]gallery.Event, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []gallery.Event
	for _, ev := range m.events {
		if !ev.Expired && !ev.ExpiresAt.After(now) {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ExpiresAt.Before(events[j].ExpiresAt) })
	return events, nil
}

func (m *MockEventStore) MarkExpired(ctx context.Context, id string) error {
	if m.MarkExpiredError != nil {
		return m.MarkExpiredError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		ev.Expired = true
	}
	return nil
}

// MockPhotoStore is an in-memory implementation of database.PhotoStore.
type MockPhotoStore struct {
	mu     sync.RWMutex
	photos map[string]*gallery.Photo

	// Error injection
	CreateError    error
	GetError       error
	ListError      error
	SetResultError error
	DeleteError    error

	// SetResultCalls records the order in which photo results were written,
	// letting tests assert FIFO completion.
	SetResultCalls []string
}

// NewMockPhotoStore creates a new mock photo store.
func NewMockPhotoStore() *MockPhotoStore {
	return &MockPhotoStore{photos: make(map[string]*gallery.Photo)}
}

// AddPhoto seeds the store with a photo.
func (m *MockPhotoStore) AddPhoto(photo gallery.Photo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[photo.ID] = &photo
}

func (m *MockPhotoStore) CreatePhoto(ctx context.Context, photo *gallery.Photo) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *photo
	m.photos[photo.ID] = &copied
	return nil
}

func (m *MockPhotoStore) GetPhoto(ctx context.Context, id string) (*gallery.Photo, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *MockPhotoStore) ListPhotosByEvent(ctx context.Context, eventID string) ([]gallery.Photo, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var photos []gallery.Photo
	for _, p := range m.photos {
		if p.EventID == eventID {
			photos = append(photos, *p)
		}
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].CreatedAt.After(photos[j].CreatedAt) })
	return photos, nil
}

func (m *MockPhotoStore) SetPhotoResult(ctx context.Context, id string, status gallery.Status, descriptors []gallery.Descriptor) error {
	if m.SetResultError != nil {
		return m.SetResultError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return gallery.ErrPhotoNotFound
	}
	if p.Status != gallery.StatusProcessing {
		return nil // terminal, write once
	}
	p.Status = status
	p.Descriptors = descriptors
	m.SetResultCalls = append(m.SetResultCalls, id)
	return nil
}

func (m *MockPhotoStore) DeletePhoto(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return gallery.ErrPhotoNotFound
	}
	delete(m.photos, id)
	return nil
}

func (m *MockPhotoStore) DeletePhotosByEvent(ctx context.Context, eventID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.photos {
		if p.EventID == eventID {
			delete(m.photos, id)
		}
	}
	return nil
}

func (m *MockPhotoStore) CountPhotosByEvent(ctx context.Context, eventID string) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, p := range m.photos {
		if p.EventID == eventID {
			count++
		}
	}
	return count, nil
}
