package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/absence-sync/backend/internal/websocket"
)

// Scheduler runs the full pull-then-push cycle on a fixed interval and
// broadcasts progress over the WebSocket hub.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	broadcaster  *websocket.EventBroadcaster
	interval     time.Duration
}

// NewScheduler creates a sync scheduler. intervalMin below one minute falls
// back to hourly.
func NewScheduler(orchestrator *Orchestrator, hub *websocket.Hub, intervalMin int) *Scheduler {
	if intervalMin < 1 {
		intervalMin = 60
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		broadcaster:  broadcaster,
		interval:     time.Duration(intervalMin) * time.Minute,
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.runCycle("scheduled")
	}); err != nil {
		return fmt.Errorf("scheduling sync cycle: %w", err)
	}

	s.cron.Start()
	log.Printf("Sync scheduler started (every %s)", s.interval)
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running cycle.
func (s *Scheduler) Stop() {
	log.Println("Stopping sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Sync scheduler stopped")
}

// TriggerSync runs a full cycle immediately in the background.
func (s *Scheduler) TriggerSync() {
	go s.runCycle("manual")
}

// runCycle performs one pull-then-push batch.
func (s *Scheduler) runCycle(trigger string) {
	ctx := context.Background()
	log.Printf("Sync cycle starting (%s)", trigger)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSyncStarted(trigger, "both")
	}

	result, err := s.orchestrator.SyncBoth(ctx)
	if err != nil {
		log.Printf("Sync cycle failed: %v", err)
		return
	}

	if s.broadcaster != nil {
		for _, r := range result.Pull {
			s.broadcaster.BroadcastIdentityResult("pull", r)
		}
		for _, r := range result.Push {
			s.broadcaster.BroadcastIdentityResult("push", r)
		}
		s.broadcaster.BroadcastSyncCompleted("pull", result.Pull)
		s.broadcaster.BroadcastSyncCompleted("push", result.Push)
	}

	log.Printf("Sync cycle complete: %d identities pulled, %d pushed",
		len(result.Pull), len(result.Push))
}
