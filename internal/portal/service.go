package portal

import (
	"context"

	"github.com/absence-sync/backend/internal/storage/models"
)

// Service is the portal capability the sync engine consumes: authenticated
// markup fetching with session reuse. It satisfies sync.PortalClient.
type Service struct {
	client *Client
	cache  *SessionCache
}

// NewService wires a portal client behind a session cache.
func NewService(client *Client, cache *SessionCache) *Service {
	return &Service{client: client, cache: cache}
}

// Authenticate establishes (or reuses) a session for the identity. Used as
// a login probe; the session stays cached for subsequent fetches.
func (s *Service) Authenticate(ctx context.Context, identity *models.Identity) error {
	_, err := s.cache.Get(ctx, identity)
	return err
}

// FetchCalendarMarkup returns the raw planner markup for one month
// (1-based), logging in through the session cache as needed.
func (s *Service) FetchCalendarMarkup(ctx context.Context, identity *models.Identity, year, month int) (string, error) {
	session, err := s.cache.Get(ctx, identity)
	if err != nil {
		return "", err
	}

	markup, err := s.client.FetchMonth(ctx, session, year, month)
	if err != nil {
		// A dead session should not poison the cache for the full TTL
		s.cache.Invalidate(identity.ID)
		return "", err
	}

	return markup, nil
}
