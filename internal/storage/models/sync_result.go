package models

import (
	"time"
)

// PullStats counts what a reconcile cycle did for one identity.
type PullStats struct {
	RecordsFound int `json:"records_found"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Deleted      int `json:"deleted"`
}

// Add accumulates another month's stats into this one.
func (s *PullStats) Add(other PullStats) {
	s.RecordsFound += other.RecordsFound
	s.Created += other.Created
	s.Updated += other.Updated
	s.Deleted += other.Deleted
}

// PushStats counts what a push cycle did for one identity.
type PushStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Deleted int `json:"deleted"`
}

// IdentityResult is the per-identity outcome of a pull or push operation.
// Exactly one of the stats fields is set depending on the operation; Err is
// set instead when the identity's cycle failed. Errors never escape the
// per-identity boundary - they are carried here.
type IdentityResult struct {
	IdentityID string     `json:"identity_id"`
	Username   string     `json:"username"`
	Pull       *PullStats `json:"pull,omitempty"`
	Push       *PushStats `json:"push,omitempty"`
	Error      string     `json:"error,omitempty"`
	Err        error      `json:"-"`
	// RuntimeSeconds is wall-clock duration from call start to return.
	RuntimeSeconds float64   `json:"runtime"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Failed reports whether this identity's cycle errored.
func (r IdentityResult) Failed() bool {
	return r.Err != nil
}

// BatchResult maps identity username to its per-identity result.
type BatchResult map[string]IdentityResult
