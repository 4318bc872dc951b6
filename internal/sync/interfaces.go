// Package sync implements the two-way reconciliation engine: pulling parsed
// absence records from the HR portal into the local store, and pushing
// locally-flagged changes out to the calendar service.
package sync

import (
	"context"

	"github.com/absence-sync/backend/internal/exchange"
	"github.com/absence-sync/backend/internal/storage/models"
)

// PortalClient is the capability the pull cycle needs from the HR portal.
// The real implementation is portal.Service; tests use fakes.
type PortalClient interface {
	// Authenticate establishes a session for the identity, failing with
	// remote.ErrAuthentication or remote.ErrTransport.
	Authenticate(ctx context.Context, identity *models.Identity) error

	// FetchCalendarMarkup returns the raw planner markup for one month
	// (1-based).
	FetchCalendarMarkup(ctx context.Context, identity *models.Identity, year, month int) (string, error)
}

// CalendarClient is the capability the push cycle needs from the calendar
// service. The real implementation is exchange.Service; tests use fakes.
type CalendarClient interface {
	// Probe checks the identity's credentials.
	Probe(ctx context.Context, identity *models.Identity) error

	// CreateEvent creates an event remotely and returns its remote id.
	CreateEvent(ctx context.Context, identity *models.Identity, event exchange.EventRequest) (string, error)

	// CancelEvent deletes an event remotely. remote.ErrNotFound means it
	// was already gone.
	CancelEvent(ctx context.Context, identity *models.Identity, remoteID string) error
}

// MarkupParser turns raw planner markup into normalized absence records.
type MarkupParser interface {
	Parse(markup string) ([]models.AbsenceRecord, error)
}
