package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absence-sync/backend/internal/storage/models"
)

func TestIdentityRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	identity := createTestIdentity(t, db, "jdoe")

	got, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "jdoe", got.PortalUsername)
	assert.Equal(t, "portal-pass", got.PortalPassword)
	assert.True(t, got.SyncEnabled)
	assert.Nil(t, got.PortalLastSyncAt)
	assert.Nil(t, got.ExchangeLastSyncAt)

	byExchange, err := repo.GetByExchangeUsername(ctx, "jdoe@example.org")
	require.NoError(t, err)
	require.NotNil(t, byExchange)
	assert.Equal(t, identity.ID, byExchange.ID)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIdentityRepositoryListSyncEnabled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	enabled := createTestIdentity(t, db, "enabled")
	disabled := createTestIdentity(t, db, "disabled")
	disabled.SyncEnabled = false
	require.NoError(t, repo.Update(ctx, disabled))

	identities, err := repo.ListSyncEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, enabled.ID, identities[0].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIdentityRepositoryUpdateMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdentityRepository(db)

	err := repo.Update(context.Background(), &models.Identity{ID: "ghost", Name: "Ghost"})
	assert.Error(t, err)
}

func TestIdentityRepositoryDeleteCascadesEvents(t *testing.T) {
	db := setupTestDB(t)
	identityRepo := NewIdentityRepository(db)
	eventRepo := NewEventRepository(db)
	ctx := context.Background()

	identity := createTestIdentity(t, db, "jdoe")
	event := &models.AbsenceEvent{
		IdentityID: identity.ID,
		Day:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Period:     models.PeriodAllDay,
		Category:   models.CategoryApproved,
		LastUpdate: time.Now().UTC(),
	}
	require.NoError(t, eventRepo.Create(ctx, db, event))

	require.NoError(t, identityRepo.Delete(ctx, identity.ID))

	gone, err := eventRepo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestIdentityRepositoryStampSyncStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdentityRepository(db)
	ctx := context.Background()

	identity := createTestIdentity(t, db, "jdoe")
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.StampSyncStatus(ctx, identity.ID, RemotePortal, "Success! {}", false, at))
	require.NoError(t, repo.StampSyncStatus(ctx, identity.ID, RemoteExchange, "Error! connection refused", true, at))

	got, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)

	require.NotNil(t, got.PortalLastSyncAt)
	assert.True(t, got.PortalLastSyncAt.Equal(at))
	require.NotNil(t, got.PortalLastSyncStatus)
	assert.Equal(t, "Success! {}", *got.PortalLastSyncStatus)
	assert.False(t, got.PortalLastSyncError)

	// The failed side still gets its timestamp
	require.NotNil(t, got.ExchangeLastSyncAt)
	assert.True(t, got.ExchangeLastSyncAt.Equal(at))
	assert.True(t, got.ExchangeLastSyncError)

	err = repo.StampSyncStatus(ctx, identity.ID, RemoteSystem("other"), "", false, at)
	assert.Error(t, err)
}
