package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/absence-sync/backend/internal/storage"
	"github.com/absence-sync/backend/internal/storage/models"
)

// CombinedResult is the outcome of a full pull-then-push batch.
type CombinedResult struct {
	Pull models.BatchResult `json:"pull"`
	Push models.BatchResult `json:"push"`
}

// Orchestrator drives the per-identity and all-identities sync cycles. Each
// identity's pull and push are wrapped individually: no error crosses the
// per-identity boundary, failures are carried in the result and stamped onto
// the identity's sync status.
type Orchestrator struct {
	identities *storage.IdentityRepository
	portal     PortalClient
	parser     MarkupParser
	reconciler *Reconciler
	pusher     *Pusher

	lookaheadMonths int

	// now is replaceable in tests
	now func() time.Time
}

// NewOrchestrator wires the sync engine together. lookaheadMonths is how far
// ahead of the current month each pull cycle reconciles.
func NewOrchestrator(
	identities *storage.IdentityRepository,
	portal PortalClient,
	parser MarkupParser,
	reconciler *Reconciler,
	pusher *Pusher,
	lookaheadMonths int,
) *Orchestrator {
	if lookaheadMonths <= 0 {
		lookaheadMonths = 6
	}

	return &Orchestrator{
		identities:      identities,
		portal:          portal,
		parser:          parser,
		reconciler:      reconciler,
		pusher:          pusher,
		lookaheadMonths: lookaheadMonths,
		now:             time.Now,
	}
}

// PullIdentity runs the pull cycle (portal to local store) for one identity
// and stamps the outcome on its portal sync status. The returned result
// carries the error, if any, instead of propagating it.
func (o *Orchestrator) PullIdentity(ctx context.Context, identity *models.Identity) models.IdentityResult {
	start := o.now()
	stats, err := o.pullIdentity(ctx, identity)
	result := models.IdentityResult{
		IdentityID:     identity.ID,
		Username:       identity.PortalUsername,
		Pull:           &stats,
		Err:            err,
		RuntimeSeconds: o.now().Sub(start).Seconds(),
		CompletedAt:    o.now().UTC(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	o.stampStatus(ctx, identity.ID, storage.RemotePortal, result)
	return result
}

// pullIdentity fetches and reconciles one month at a time across the
// look-ahead window, accumulating stats.
func (o *Orchestrator) pullIdentity(ctx context.Context, identity *models.Identity) (models.PullStats, error) {
	var total models.PullStats

	now := o.now()
	year, month := now.Year(), int(now.Month())

	for i := 0; i < o.lookaheadMonths; i++ {
		markup, err := o.portal.FetchCalendarMarkup(ctx, identity, year, month)
		if err != nil {
			return total, err
		}

		records, err := o.parser.Parse(markup)
		if err != nil {
			return total, err
		}

		stats, err := o.reconciler.Reconcile(ctx, identity, year, month, 1, records)
		if err != nil {
			return total, err
		}
		total.Add(stats)

		year, month = nextMonth(year, month)
	}

	return total, nil
}

// PushIdentity runs the push cycle (local store to calendar service) for one
// identity and stamps the outcome on its calendar-service sync status.
func (o *Orchestrator) PushIdentity(ctx context.Context, identity *models.Identity) models.IdentityResult {
	start := o.now()
	stats, err := o.pusher.Push(ctx, identity)
	result := models.IdentityResult{
		IdentityID:     identity.ID,
		Username:       identity.ExchangeUsername,
		Push:           &stats,
		Err:            err,
		RuntimeSeconds: o.now().Sub(start).Seconds(),
		CompletedAt:    o.now().UTC(),
	}
	if err != nil {
		result.Error = err.Error()
	}

	o.stampStatus(ctx, identity.ID, storage.RemoteExchange, result)
	return result
}

// SyncPull runs the pull cycle for every sync-enabled identity.
func (o *Orchestrator) SyncPull(ctx context.Context) (models.BatchResult, error) {
	identities, err := o.identities.ListSyncEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}

	results := make(models.BatchResult, len(identities))
	for i := range identities {
		identity := &identities[i]
		result := o.PullIdentity(ctx, identity)
		results[result.Username] = result
		if result.Failed() {
			log.Printf("Pull failed for %s: %v", result.Username, result.Err)
		}
	}

	return results, nil
}

// SyncPush runs the push cycle for every sync-enabled identity. Push honors
// the enabled flag the same way pull does.
func (o *Orchestrator) SyncPush(ctx context.Context) (models.BatchResult, error) {
	identities, err := o.identities.ListSyncEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}

	results := make(models.BatchResult, len(identities))
	for i := range identities {
		identity := &identities[i]
		result := o.PushIdentity(ctx, identity)
		results[result.Username] = result
		if result.Failed() {
			log.Printf("Push failed for %s: %v", result.Username, result.Err)
		}
	}

	return results, nil
}

// SyncBoth runs a complete cycle: every identity's pull completes and
// commits before any push begins, so the reconciler and pusher never touch
// the same event concurrently within one cycle.
func (o *Orchestrator) SyncBoth(ctx context.Context) (CombinedResult, error) {
	pull, err := o.SyncPull(ctx)
	if err != nil {
		return CombinedResult{}, err
	}

	push, err := o.SyncPush(ctx)
	if err != nil {
		return CombinedResult{Pull: pull}, err
	}

	return CombinedResult{Pull: pull, Push: push}, nil
}

// SyncIdentity runs pull then push for a single identity, regardless of its
// enabled flag (explicit per-identity triggers are deliberate).
func (o *Orchestrator) SyncIdentity(ctx context.Context, identity *models.Identity) CombinedResult {
	pull := o.PullIdentity(ctx, identity)
	push := o.PushIdentity(ctx, identity)

	return CombinedResult{
		Pull: models.BatchResult{pull.Username: pull},
		Push: models.BatchResult{push.Username: push},
	}
}

// stampStatus records the cycle outcome on the identity. The timestamp is
// written on failure too, so "never synced" and "last attempt failed" stay
// distinguishable; the error flag is structural, not parsed from the text.
func (o *Orchestrator) stampStatus(ctx context.Context, identityID string, system storage.RemoteSystem, result models.IdentityResult) {
	var status string
	if result.Failed() {
		status = fmt.Sprintf("Error! %v", result.Err)
	} else {
		summary, err := json.Marshal(result)
		if err != nil {
			summary = []byte("{}")
		}
		status = fmt.Sprintf("Success! %s", summary)
	}

	if err := o.identities.StampSyncStatus(ctx, identityID, system, status, result.Failed(), result.CompletedAt); err != nil {
		log.Printf("Failed to stamp %s sync status for identity %s: %v", system, identityID, err)
	}
}

// nextMonth returns the year and month following the given one (1-based).
func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}
