package exchange

import (
	"context"

	"github.com/absence-sync/backend/internal/storage/models"
)

// Service adapts the client to the per-identity capability the push cycle
// consumes. It satisfies sync.CalendarClient.
type Service struct {
	client *Client
}

// NewService wraps a calendar-service client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// Probe checks the identity's calendar-service credentials.
func (s *Service) Probe(ctx context.Context, identity *models.Identity) error {
	return s.client.Probe(ctx, identity.ExchangeUsername, identity.ExchangePassword)
}

// CreateEvent creates an event as the identity and returns its remote id.
func (s *Service) CreateEvent(ctx context.Context, identity *models.Identity, event EventRequest) (string, error) {
	return s.client.CreateEvent(ctx, identity.ExchangeUsername, identity.ExchangePassword, event)
}

// CancelEvent cancels a previously created event as the identity.
func (s *Service) CancelEvent(ctx context.Context, identity *models.Identity, remoteID string) error {
	return s.client.CancelEvent(ctx, identity.ExchangeUsername, identity.ExchangePassword, remoteID)
}
