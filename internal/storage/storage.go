// Package storage provides the object store for photo blobs. The production
// implementation targets any S3-compatible backend.
package storage

import "context"

// StoredObject describes a durably stored blob: the public URL it can be
// retrieved from and the key needed to delete it again.
type StoredObject struct {
	URL string
	Key string
}

// Store is the object store used for photo blobs.
type Store interface {
	// Store uploads the image durably under the given namespace hint
	// (typically the owning event) and returns its retrieval URL and
	// deletion key.
	Store(ctx context.Context, image []byte, namespace string) (*StoredObject, error)
	// Delete removes a stored object by its deletion key.
	Delete(ctx context.Context, key string) error
}
