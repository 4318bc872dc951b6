package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/storage/models"
)

// Reconciler diffs parsed remote records against locally stored events for a
// date window. Identity of an absence is content based: (identity, day,
// period, category) among non-deleted rows. Re-running with the same records
// is a no-op.
type Reconciler struct {
	db     *storage.DB
	events *storage.EventRepository

	// now is replaceable in tests
	now func() time.Time
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(db *storage.DB, events *storage.EventRepository) *Reconciler {
	return &Reconciler{
		db:     db,
		events: events,
		now:    time.Now,
	}
}

// Reconcile applies one batch of remote records for the window starting at
// the first day of (year, month) and spanning months. Each record either
// confirms an existing live event (stamping last_update) or creates a new
// one flagged for push. Live in-window events the batch did not confirm are
// then soft-deleted in bulk and flagged for push.
//
// The upsert loop runs in one transaction committed before the sweep: the
// sweep's staleness predicate compares last_update against this cycle's
// timestamp, so the stamps must be durable first.
func (r *Reconciler) Reconcile(ctx context.Context, identity *models.Identity, year, month, months int, records []models.AbsenceRecord) (models.PullStats, error) {
	now := r.now().UTC()
	stats := models.PullStats{RecordsFound: len(records)}

	err := r.db.Transaction(func(tx *sql.Tx) error {
		for _, record := range records {
			day := midnightUTC(record.Day)

			existing, err := r.events.FindLive(ctx, tx, identity.ID, day, record.Period, record.Category)
			if err != nil {
				return err
			}

			if existing != nil {
				// Confirmed present; the stamp keeps it out of the sweep
				if err := r.events.TouchLastUpdate(ctx, tx, existing.ID, now); err != nil {
					return err
				}
				stats.Updated++
				continue
			}

			event := &models.AbsenceEvent{
				IdentityID: identity.ID,
				Day:        day,
				Period:     record.Period,
				Category:   record.Category,
				Updated:    true,
				LastUpdate: now,
			}
			if err := r.events.Create(ctx, tx, event); err != nil {
				return err
			}
			stats.Created++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("reconciling events: %w", err)
	}

	windowStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, months, 0)

	deleted, err := r.events.SweepStale(ctx, identity.ID, windowStart, windowEnd, now)
	if err != nil {
		return stats, fmt.Errorf("sweeping stale events: %w", err)
	}
	stats.Deleted = deleted

	return stats, nil
}

// midnightUTC normalizes a day to UTC midnight so composite-key lookups
// compare equal regardless of how the date was parsed.
func midnightUTC(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
