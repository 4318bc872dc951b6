package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absence-sync/backend/internal/exchange"
	"github.com/absence-sync/backend/internal/remote"
	"github.com/absence-sync/backend/internal/storage/models"
)

// fakeCalendar is a scripted CalendarClient capturing calls.
type fakeCalendar struct {
	created   []exchange.EventRequest
	cancelled []string

	createErr error
	cancelErr error
}

func (f *fakeCalendar) Probe(ctx context.Context, identity *models.Identity) error {
	return nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, identity *models.Identity, event exchange.EventRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, event)
	return fmt.Sprintf("item-%d", len(f.created)), nil
}

func (f *fakeCalendar) CancelEvent(ctx context.Context, identity *models.Identity, remoteID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, remoteID)
	return nil
}

func (s *testStore) createEvent(t *testing.T, event *models.AbsenceEvent) *models.AbsenceEvent {
	t.Helper()
	if err := s.events.Create(context.Background(), s.db, event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func pusherAt(store *testStore, calendar CalendarClient, at time.Time) *Pusher {
	p := NewPusher(store.events, calendar)
	p.now = func() time.Time { return at }
	return p
}

func TestPushCreatesLiveEvent(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodMorning,
		Category:   models.CategoryRequested,
		Updated:    true,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{}
	pushedAt := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	stats, err := pusherAt(store, calendar, pushedAt).Push(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, models.PushStats{Created: 1}, stats)

	require.Len(t, calendar.created, 1)
	assert.Equal(t, "Out of office", calendar.created[0].Subject)
	assert.True(t, calendar.created[0].Start.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, calendar.created[0].End.Equal(time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)))

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.Updated)
	require.NotNil(t, got.RemoteID)
	assert.Equal(t, "item-1", *got.RemoteID)
	require.NotNil(t, got.LastPush)
	assert.True(t, got.LastPush.Equal(pushedAt))
}

func TestPushInPlaceUpdateUnsupported(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	remoteID := "item-old"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		RemoteID:   &remoteID,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{}
	_, err := pusherAt(store, calendar, day).Push(ctx, identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrUnsupported))
	assert.Empty(t, calendar.created)

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.Updated, "unsupported update must stay pending")
}

func TestPushSkipsDeletedNeverPushed(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		Deleted:    true,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{}
	stats, err := pusherAt(store, calendar, day).Push(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, models.PushStats{Skipped: 1}, stats)
	assert.Empty(t, calendar.created)
	assert.Empty(t, calendar.cancelled)

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.Updated)
	assert.True(t, got.Deleted)
}

func TestPushCancelsDeletedEvent(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	remoteID := "item-42"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		Deleted:    true,
		RemoteID:   &remoteID,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{}
	stats, err := pusherAt(store, calendar, day).Push(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, models.PushStats{Deleted: 1}, stats)
	assert.Equal(t, []string{"item-42"}, calendar.cancelled)

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.Updated)
	assert.True(t, got.Deleted, "row stays soft-deleted after remote cancel")
}

func TestPushToleratesAlreadyGoneEvent(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	remoteID := "item-42"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		Deleted:    true,
		RemoteID:   &remoteID,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{cancelErr: remote.ErrNotFound}
	stats, err := pusherAt(store, calendar, day).Push(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, models.PushStats{Deleted: 1}, stats)

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, got.Updated)
}

func TestPushFailureKeepsPendingFlag(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	event := store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		LastUpdate: day,
	})

	calendar := &fakeCalendar{createErr: remote.ErrTransport}
	stats, err := pusherAt(store, calendar, day).Push(ctx, identity)
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrTransport))
	assert.Equal(t, models.PushStats{}, stats)

	got, err := store.events.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.Updated, "failed push must leave the event pending")
	assert.Nil(t, got.LastPush)
}

func TestPushAbortsOnFirstFailure(t *testing.T) {
	store := newTestStore(t)
	identity := store.createIdentity(t, "jdoe", true)
	ctx := context.Background()

	remoteID := "item-1"
	day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	// Ordered by day: the cancel succeeds, then the create fails
	store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day1,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		Deleted:    true,
		RemoteID:   &remoteID,
		LastUpdate: day1,
	})
	store.createEvent(t, &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        day2,
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		Updated:    true,
		LastUpdate: day2,
	})

	calendar := &fakeCalendar{createErr: remote.ErrTransport}
	stats, err := pusherAt(store, calendar, day2).Push(ctx, identity)
	require.Error(t, err)
	assert.Equal(t, models.PushStats{Deleted: 1}, stats, "stats so far are returned")

	pending, err := store.events.ListPendingPush(ctx, identity.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Day.Equal(day2))
}
