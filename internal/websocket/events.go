package websocket

import (
	"log"

	"github.com/absence-sync/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting sync progress events to the hub.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastSyncStarted announces the start of a batch cycle.
func (b *EventBroadcaster) BroadcastSyncStarted(trigger, kind string) {
	b.broadcast(NewMessage(TypeSyncStarted, SyncStartedPayload{
		Trigger: trigger,
		Kind:    kind,
	}))
}

// BroadcastIdentityResult announces one identity's pull or push outcome.
func (b *EventBroadcaster) BroadcastIdentityResult(kind string, result models.IdentityResult) {
	if result.Failed() {
		b.broadcast(NewMessage(TypeIdentitySyncError, IdentitySyncErrorPayload{
			Username: result.Username,
			Kind:     kind,
			Message:  result.Error,
		}))
		return
	}

	payload := IdentitySyncPayload{
		Username:       result.Username,
		Kind:           kind,
		RuntimeSeconds: result.RuntimeSeconds,
	}
	if result.Pull != nil {
		payload.Created = result.Pull.Created
		payload.Updated = result.Pull.Updated
		payload.Deleted = result.Pull.Deleted
	}
	if result.Push != nil {
		payload.Created = result.Push.Created
		payload.Updated = result.Push.Updated
		payload.Skipped = result.Push.Skipped
		payload.Deleted = result.Push.Deleted
	}

	b.broadcast(NewMessage(TypeIdentitySynced, payload))
}

// BroadcastSyncCompleted announces the end of a batch cycle.
func (b *EventBroadcaster) BroadcastSyncCompleted(kind string, results models.BatchResult) {
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}

	b.broadcast(NewMessage(TypeSyncCompleted, SyncCompletedPayload{
		Kind:       kind,
		Identities: len(results),
		Failed:     failed,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Failed to serialize WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
