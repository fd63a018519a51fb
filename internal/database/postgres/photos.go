package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mholecek/snapmatch/internal/gallery"
	"github.com/pgvector/pgvector-go"
)

// PhotoRepository handles database operations for photo records and their
// face descriptors.
type PhotoRepository struct {
	pool *Pool
}

// NewPhotoRepository creates a new photo repository.
func NewPhotoRepository(pool *Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

// CreatePhoto persists a new photo record. Descriptors are not written here;
// they arrive later through SetPhotoResult.
func (r *PhotoRepository) CreatePhoto(ctx context.Context, photo *gallery.Photo) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO photos (id, event_id, url, storage_key, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, photo.ID, photo.EventID, photo.URL, photo.StorageKey, photo.Status, photo.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}
	return nil
}

// GetPhoto retrieves a photo by ID with its descriptors. Returns nil if not found.
func (r *PhotoRepository) GetPhoto(ctx context.Context, id string) (*gallery.Photo, error) {
	var p gallery.Photo
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, event_id, url, storage_key, status, created_at
		FROM photos
		WHERE id = $1
	`, id).Scan(&p.ID, &p.EventID, &p.URL, &p.StorageKey, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying photo: %w", err)
	}

	if p.Descriptors, err = r.getDescriptors(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// getDescriptors loads a photo's descriptors ordered by face index.
func (r *PhotoRepository) getDescriptors(ctx context.Context, photoID string) ([]gallery.Descriptor, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT embedding
		FROM photo_descriptors
		WHERE photo_id = $1
		ORDER BY face_index
	`, photoID)
	if err != nil {
		return nil, fmt.Errorf("querying descriptors: %w", err)
	}
	defer rows.Close()

	var descriptors []gallery.Descriptor
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scanning descriptor: %w", err)
		}
		descriptors = append(descriptors, gallery.Descriptor(vec.Slice()))
	}
	return descriptors, rows.Err()
}

// ListPhotosByEvent returns an event's photos with descriptors, newest first.
func (r *PhotoRepository) ListPhotosByEvent(ctx context.Context, eventID string) ([]gallery.Photo, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, url, storage_key, status, created_at
		FROM photos
		WHERE event_id = $1
		ORDER BY created_at DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	var photos []gallery.Photo
	for rows.Next() {
		var p gallery.Photo
		if err := rows.Scan(&p.ID, &p.EventID, &p.URL, &p.StorageKey, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query per photo keeps this simple; events top out in the low
	// hundreds of photos.
	for i := range photos {
		if photos[i].Descriptors, err = r.getDescriptors(ctx, photos[i].ID); err != nil {
			return nil, err
		}
	}
	return photos, nil
}

// SetPhotoResult records the outcome of descriptor extraction in one
// transaction. Only photos still in processing status are touched, so the
// descriptor sequence is written at most once.
func (r *PhotoRepository) SetPhotoResult(ctx context.Context, id string, status gallery.Status, descriptors []gallery.Descriptor) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE photos SET status = $2
		WHERE id = $1 AND status = $3
	`, id, status, gallery.StatusProcessing)
	if err != nil {
		return fmt.Errorf("updating photo status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already terminal, or the photo is gone. Either way nothing to write.
		return nil
	}

	for i, d := range descriptors {
		vec := pgvector.NewVector(d)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO photo_descriptors (photo_id, face_index, embedding)
			VALUES ($1, $2, $3)
		`, id, i, vec); err != nil {
			return fmt.Errorf("inserting descriptor %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing photo result: %w", err)
	}
	return nil
}

// DeletePhoto removes a photo record and its descriptors.
func (r *PhotoRepository) DeletePhoto(ctx context.Context, id string) error {
	res, err := r.pool.db.ExecContext(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return gallery.ErrPhotoNotFound
	}
	return nil
}

// DeletePhotosByEvent removes all photo records for an event in bulk.
func (r *PhotoRepository) DeletePhotosByEvent(ctx context.Context, eventID string) error {
	_, err := r.pool.db.ExecContext(ctx, "DELETE FROM photos WHERE event_id = $1", eventID)
	if err != nil {
		return fmt.Errorf("deleting event photos: %w", err)
	}
	return nil
}

// CountPhotosByEvent returns the number of photos in an event.
func (r *PhotoRepository) CountPhotosByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE event_id = $1", eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting photos: %w", err)
	}
	return count, nil
}
