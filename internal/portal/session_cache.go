package portal

import (
	"context"
	"sync"
	"time"

	"github.com/absence-sync/backend/internal/storage/models"
)

// loginFunc performs a portal login. Split out so tests can count logins.
type loginFunc func(ctx context.Context, username, password string) (*Session, error)

// SessionCache memoizes authenticated portal sessions per identity for a
// bounded time, avoiding redundant logins within a sync cycle. Expiry is
// wall-clock based; entry creation is single-writer-per-key under the
// mutex, so concurrent callers inside the TTL share one handle.
type SessionCache struct {
	login loginFunc
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is replaceable in tests
	now func() time.Time
}

type cacheEntry struct {
	session  *Session
	expires  time.Time
	username string
}

// NewSessionCache creates a session cache in front of the given client.
func NewSessionCache(client *Client, ttl time.Duration) *SessionCache {
	return newSessionCache(client.Login, ttl)
}

func newSessionCache(login loginFunc, ttl time.Duration) *SessionCache {
	return &SessionCache{
		login:   login,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a live session for the identity, logging in only when no
// cached session exists or the cached one has expired. Login failures are
// not cached.
func (c *SessionCache) Get(ctx context.Context, identity *models.Identity) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[identity.ID]; ok {
		// Credentials may have changed since the entry was created
		if now.Before(entry.expires) && entry.username == identity.PortalUsername {
			return entry.session, nil
		}
		delete(c.entries, identity.ID)
	}

	session, err := c.login(ctx, identity.PortalUsername, identity.PortalPassword)
	if err != nil {
		return nil, err
	}

	c.entries[identity.ID] = cacheEntry{
		session:  session,
		expires:  now.Add(c.ttl),
		username: identity.PortalUsername,
	}

	return session, nil
}

// Invalidate drops the cached session for an identity, forcing the next Get
// to log in again.
func (c *SessionCache) Invalidate(identityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, identityID)
}
