package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// Error injection
	StoreError  error
	DeleteError error

	// DeleteCalls records every deletion key passed to Delete, including
	// calls that failed via DeleteError.
	DeleteCalls []string
}

// NewMockStore creates a new in-memory object store.
func NewMockStore() *MockStore {
	return &MockStore{objects: make(map[string][]byte)}
}

func (m *MockStore) Store(ctx context.Context, image []byte, namespace string) (*StoredObject, error) {
	if m.StoreError != nil {
		return nil, m.StoreError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s/%s", Slug(namespace), uuid.NewString())
	m.objects[key] = image
	return &StoredObject{
		URL: "https://storage.test/" + key,
		Key: key,
	}, nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, key)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
