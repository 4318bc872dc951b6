// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Identity represents a user account holding credentials for both remote
// systems: the HR portal (pull side) and the calendar service (push side).
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsAdmin     bool   `json:"is_admin"`
	SyncEnabled bool   `json:"sync_enabled"`

	PortalUsername string `json:"portal_username"`
	PortalPassword string `json:"-"`

	ExchangeUsername string `json:"exchange_username"`
	ExchangePassword string `json:"-"`

	// Pull and push sync state are tracked independently per remote system.
	PortalLastSyncAt       *time.Time `json:"portal_last_sync_at,omitempty"`
	PortalLastSyncStatus   *string    `json:"portal_last_sync_status,omitempty"`
	PortalLastSyncError    bool       `json:"portal_last_sync_error"`
	ExchangeLastSyncAt     *time.Time `json:"exchange_last_sync_at,omitempty"`
	ExchangeLastSyncStatus *string    `json:"exchange_last_sync_status,omitempty"`
	ExchangeLastSyncError  bool       `json:"exchange_last_sync_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sync summary constants returned by SyncSummary.
const (
	SyncSummaryDisabled = "disabled" // sync is turned off for this identity
	SyncSummaryBad      = "bad"      // at least one side errored on its last run
	SyncSummaryOK       = "ok"       // never synced, or last sync more than a day ago
	SyncSummaryGood     = "good"     // both sides synced cleanly within a day
)

// SyncSummary classifies the identity's overall sync health at the given time.
func (i *Identity) SyncSummary(now time.Time) string {
	if !i.SyncEnabled {
		return SyncSummaryDisabled
	}

	if i.PortalLastSyncError || i.ExchangeLastSyncError {
		return SyncSummaryBad
	}

	if i.PortalLastSyncAt == nil || i.ExchangeLastSyncAt == nil {
		return SyncSummaryOK
	}

	oldest := *i.PortalLastSyncAt
	if i.ExchangeLastSyncAt.Before(oldest) {
		oldest = *i.ExchangeLastSyncAt
	}
	if now.Sub(oldest) > 24*time.Hour {
		return SyncSummaryOK
	}

	return SyncSummaryGood
}
