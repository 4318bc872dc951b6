package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/absence-sync/backend/internal/storage/models"
)

const eventColumns = `id, identity_id, day, period, category,
	updated, deleted, remote_id, last_update, last_push`

// EventRepository provides data access for absence events.
//
// Methods on the reconcile path take a Queryable so they can run inside the
// reconciler's transaction; the deletion sweep depends on seeing the
// last_update stamps written by the same cycle.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new absence event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new absence event.
func (r *EventRepository) Create(ctx context.Context, q Queryable, event *models.AbsenceEvent) error {
	event.ID = GenerateID()

	_, err := q.ExecContext(ctx, `
		INSERT INTO absence_events (
			id, identity_id, day, period, category,
			updated, deleted, remote_id, last_update, last_push
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID, event.IdentityID, event.Day, event.Period, event.Category,
		event.Updated, event.Deleted, event.RemoteID, event.LastUpdate, event.LastPush,
	)

	if err != nil {
		return fmt.Errorf("inserting absence event: %w", err)
	}

	return nil
}

// FindLive looks up the non-deleted event matching the uniqueness key
// (identity, day, period, category). Soft-deleted rows never match; a
// re-reported absence therefore gets a fresh row.
func (r *EventRepository) FindLive(ctx context.Context, q Queryable, identityID string, day time.Time, period, category string) (*models.AbsenceEvent, error) {
	event := &models.AbsenceEvent{}

	err := q.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM absence_events
		WHERE identity_id = ? AND day = ? AND period = ? AND category = ? AND deleted = 0
	`, identityID, day, period, category).Scan(
		&event.ID, &event.IdentityID, &event.Day, &event.Period, &event.Category,
		&event.Updated, &event.Deleted, &event.RemoteID, &event.LastUpdate, &event.LastPush,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying absence event: %w", err)
	}

	return event, nil
}

// TouchLastUpdate stamps last_update on an event, confirming it as present
// in the current reconcile cycle.
func (r *EventRepository) TouchLastUpdate(ctx context.Context, q Queryable, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE absence_events SET last_update = ? WHERE id = ?
	`, at, id)

	if err != nil {
		return fmt.Errorf("touching absence event: %w", err)
	}

	return nil
}

// SweepStale soft-deletes, in one conditional update, every live event for
// the identity whose day falls in [windowStart, windowEnd) and whose
// last_update is strictly older than cutoff - i.e. events the current cycle
// did not confirm. Returns the number of rows marked.
func (r *EventRepository) SweepStale(ctx context.Context, identityID string, windowStart, windowEnd, cutoff time.Time) (int, error) {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE absence_events
		SET deleted = 1, updated = 1
		WHERE identity_id = ?
		  AND day >= ? AND day < ?
		  AND deleted = 0
		  AND last_update < ?
	`, identityID, windowStart, windowEnd, cutoff)

	if err != nil {
		return 0, fmt.Errorf("sweeping stale events: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept events: %w", err)
	}

	return int(affected), nil
}

// ListPendingPush retrieves all events for the identity flagged for push,
// regardless of deleted state. Deleted+updated rows represent pending
// remote deletions.
func (r *EventRepository) ListPendingPush(ctx context.Context, identityID string) ([]models.AbsenceEvent, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM absence_events
		WHERE identity_id = ? AND updated = 1
		ORDER BY day
	`, identityID)
	if err != nil {
		return nil, fmt.Errorf("querying pending-push events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// ListLiveWindow retrieves non-deleted events for the identity with a day in
// [from, to), ordered by day. Used by the calendar view and the API.
func (r *EventRepository) ListLiveWindow(ctx context.Context, identityID string, from, to time.Time) ([]models.AbsenceEvent, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM absence_events
		WHERE identity_id = ? AND deleted = 0 AND day >= ? AND day < ?
		ORDER BY day
	`, identityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying events in window: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// GetByID retrieves an absence event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.AbsenceEvent, error) {
	event := &models.AbsenceEvent{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT `+eventColumns+` FROM absence_events WHERE id = ?
	`, id).Scan(
		&event.ID, &event.IdentityID, &event.Day, &event.Period, &event.Category,
		&event.Updated, &event.Deleted, &event.RemoteID, &event.LastUpdate, &event.LastPush,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying absence event: %w", err)
	}

	return event, nil
}

// MarkPushed records a successful push outcome: clears the pending flag,
// stamps last_push, and stores the remote identifier when one was assigned.
// A failed remote call must NOT reach this method - leaving updated set is
// what makes the next cycle retry.
func (r *EventRepository) MarkPushed(ctx context.Context, id string, remoteID *string, at time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE absence_events
		SET updated = 0, last_push = ?, remote_id = COALESCE(?, remote_id)
		WHERE id = ?
	`, at, remoteID, id)

	if err != nil {
		return fmt.Errorf("marking absence event pushed: %w", err)
	}

	return nil
}

func (r *EventRepository) scanEvents(rows *sql.Rows) ([]models.AbsenceEvent, error) {
	var events []models.AbsenceEvent
	for rows.Next() {
		var event models.AbsenceEvent
		if err := rows.Scan(
			&event.ID, &event.IdentityID, &event.Day, &event.Period, &event.Category,
			&event.Updated, &event.Deleted, &event.RemoteID, &event.LastUpdate, &event.LastPush,
		); err != nil {
			return nil, fmt.Errorf("scanning absence event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
