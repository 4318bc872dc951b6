package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absence-sync/backend/internal/storage/models"
)

// countingLogin returns a loginFunc that counts calls and hands out distinct
// sessions, or the given error.
func countingLogin(calls *int, err error) loginFunc {
	return func(_ context.Context, _, _ string) (*Session, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &Session{}, nil
	}
}

func testIdentity() *models.Identity {
	return &models.Identity{
		ID:             "id-1",
		PortalUsername: "jdoe",
		PortalPassword: "secret",
	}
}

func TestSessionCacheReusesWithinTTL(t *testing.T) {
	var calls int
	cache := newSessionCache(countingLogin(&calls, nil), time.Minute)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	identity := testIdentity()

	first, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	second, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestSessionCacheExpires(t *testing.T) {
	var calls int
	cache := newSessionCache(countingLogin(&calls, nil), time.Minute)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	identity := testIdentity()

	first, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	// Expiry is not-before, so exactly at the deadline the entry is stale
	now = now.Add(time.Minute)
	second, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestSessionCacheCredentialChangeForcesLogin(t *testing.T) {
	var calls int
	cache := newSessionCache(countingLogin(&calls, nil), time.Minute)

	identity := testIdentity()

	_, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	identity.PortalUsername = "jdoe2"
	_, err = cache.Get(context.Background(), identity)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestSessionCacheDoesNotCacheFailures(t *testing.T) {
	var calls int
	loginErr := errors.New("login rejected")
	cache := newSessionCache(countingLogin(&calls, loginErr), time.Minute)

	identity := testIdentity()

	_, err := cache.Get(context.Background(), identity)
	require.ErrorIs(t, err, loginErr)

	_, err = cache.Get(context.Background(), identity)
	require.ErrorIs(t, err, loginErr)

	assert.Equal(t, 2, calls)
}

func TestSessionCacheInvalidate(t *testing.T) {
	var calls int
	cache := newSessionCache(countingLogin(&calls, nil), time.Minute)

	identity := testIdentity()

	_, err := cache.Get(context.Background(), identity)
	require.NoError(t, err)

	cache.Invalidate(identity.ID)

	_, err = cache.Get(context.Background(), identity)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
