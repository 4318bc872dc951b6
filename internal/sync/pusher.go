package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absence-sync/backend/internal/exchange"
	"github.com/absence-sync/backend/internal/remote"
	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/storage/models"
)

// Remote events carry a fixed synthetic subject and body; no free text from
// the portal is transmitted.
const (
	pushSubject = "Out of office"
	pushBody    = "This event is managed by the absence sync service."
)

// Pusher propagates locally-flagged pending events to the calendar service.
// Every operation is retry safe: the pending flag is cleared only after the
// remote call succeeds, so a failed call is retried on the next cycle.
type Pusher struct {
	events   *storage.EventRepository
	calendar CalendarClient

	// now is replaceable in tests
	now func() time.Time
}

// NewPusher creates a pusher over the given store and calendar client.
func NewPusher(events *storage.EventRepository, calendar CalendarClient) *Pusher {
	return &Pusher{
		events:   events,
		calendar: calendar,
		now:      time.Now,
	}
}

// Push scans the identity's events with the pending flag set, regardless of
// deleted state, and propagates each outward:
//
//   - live, never pushed: create remotely and record the assigned remote id
//   - live, already pushed: in-place update is not supported yet; fails with
//     remote.ErrUnsupported, leaving the flag set for a future retry
//   - deleted, never pushed: nothing to remove remotely; counted as skipped
//   - deleted, already pushed: cancel remotely; an already-gone event counts
//     as deleted
//
// The first remote failure aborts the identity's push cycle with the stats
// accumulated so far; the failing event keeps its pending flag.
func (p *Pusher) Push(ctx context.Context, identity *models.Identity) (models.PushStats, error) {
	var stats models.PushStats

	pending, err := p.events.ListPendingPush(ctx, identity.ID)
	if err != nil {
		return stats, fmt.Errorf("listing pending events: %w", err)
	}

	for i := range pending {
		event := &pending[i]

		switch {
		case !event.Deleted && event.RemoteID == nil:
			remoteID, err := p.calendar.CreateEvent(ctx, identity, exchange.EventRequest{
				Subject: pushSubject,
				Body:    pushBody,
				Start:   event.Start(),
				End:     event.End(),
			})
			if err != nil {
				return stats, fmt.Errorf("creating event %s remotely: %w", event.ID, err)
			}
			if err := p.events.MarkPushed(ctx, event.ID, &remoteID, p.now().UTC()); err != nil {
				return stats, err
			}
			stats.Created++

		case !event.Deleted && event.RemoteID != nil:
			return stats, fmt.Errorf("%w: in-place update of event %s", remote.ErrUnsupported, event.ID)

		case event.RemoteID == nil:
			// Soft-deleted before it ever existed remotely
			if err := p.events.MarkPushed(ctx, event.ID, nil, p.now().UTC()); err != nil {
				return stats, err
			}
			stats.Skipped++

		default:
			err := p.calendar.CancelEvent(ctx, identity, *event.RemoteID)
			if err != nil && !errors.Is(err, remote.ErrNotFound) {
				return stats, fmt.Errorf("cancelling event %s remotely: %w", event.ID, err)
			}
			if err := p.events.MarkPushed(ctx, event.ID, nil, p.now().UTC()); err != nil {
				return stats, err
			}
			stats.Deleted++
		}
	}

	return stats, nil
}
