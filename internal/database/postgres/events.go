package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mholecek/snapmatch/internal/gallery"
)

// EventRepository handles database operations for event records.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// CreateEvent persists a new event.
func (r *EventRepository) CreateEvent(ctx context.Context, event *gallery.Event) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO events (id, name, photographer_id, retention_days, expires_at, expired, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.Name, event.PhotographerID, event.RetentionDays, event.ExpiresAt, event.Expired, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID. Returns nil if not found.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (*gallery.Event, error) {
	var ev gallery.Event
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, photographer_id, retention_days, expires_at, expired, created_at
		FROM events
		WHERE id = $1
	`, id).Scan(&ev.ID, &ev.Name, &ev.PhotographerID, &ev.RetentionDays, &ev.ExpiresAt, &ev.Expired, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return &ev, nil
}

// ListEventsByPhotographer returns a photographer's events, newest first,
// with photo counts populated.
func (r *EventRepository) ListEventsByPhotographer(ctx context.Context, photographerID string) ([]gallery.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.photographer_id, e.retention_days, e.expires_at, e.expired, e.created_at,
		       COUNT(p.id)
		FROM events e
		LEFT JOIN photos p ON p.event_id = e.id
		WHERE e.photographer_id = $1
		GROUP BY e.id
		ORDER BY e.created_at DESC
	`, photographerID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []gallery.Event
	for rows.Next() {
		var ev gallery.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.PhotographerID, &ev.RetentionDays,
			&ev.ExpiresAt, &ev.Expired, &ev.CreatedAt, &ev.PhotoCount); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListExpirable returns events past their retention window that have not
// been swept yet. Ordered by expiry so the oldest debt is paid first.
func (r *EventRepository) ListExpirable(ctx context.Context, now time.Time) ([]gallery.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, name, photographer_id, retention_days, expires_at, expired, created_at
		FROM events
		WHERE expired = FALSE AND expires_at <= $1
		ORDER BY expires_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("querying expirable events: %w", err)
	}
	defer rows.Close()

	var events []gallery.Event
	for rows.Next() {
		var ev gallery.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.PhotographerID, &ev.RetentionDays,
			&ev.ExpiresAt, &ev.Expired, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkExpired sets the expired flag on an event.
func (r *EventRepository) MarkExpired(ctx context.Context, id string) error {
	_, err := r.pool.db.ExecContext(ctx, "UPDATE events SET expired = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("marking event expired: %w", err)
	}
	return nil
}
