package models

import (
	"fmt"
	"time"
)

// Period constants - half-day granularity of an absence.
const (
	PeriodMorning   = "AM"
	PeriodAfternoon = "PM"
	PeriodAllDay    = "AFD"
)

// Category constants - classification of an absence.
const (
	CategoryBankHoliday = "BANK"
	CategoryRequested   = "REQUESTED"
	CategoryApproved    = "APPROVED"
)

// PeriodInfo describes the hour window and display name for a period.
type PeriodInfo struct {
	StartHour int
	EndHour   int
	Name      string
}

var periodInfo = map[string]PeriodInfo{
	PeriodMorning:   {8, 14, "Morning"},
	PeriodAfternoon: {14, 20, "Afternoon"},
	PeriodAllDay:    {8, 20, "All Day"},
}

// PeriodInfoFor returns the hour window for a period. An unrecognized period
// falls back to the all-day window with a diagnostic name so a bad value is
// visible rather than dropped.
func PeriodInfoFor(period string) PeriodInfo {
	if info, ok := periodInfo[period]; ok {
		return info
	}
	return PeriodInfo{8, 20, fmt.Sprintf("Unknown period - %s", period)}
}

// AbsenceEvent is one day or half-day absence record tracked locally and
// mirrored to the remote calendar service. Rows are soft-deleted, never
// physically removed, so push state survives reconciliation.
type AbsenceEvent struct {
	ID         string `json:"id"`
	IdentityID string `json:"identity_id"`

	// These three, together with the identity, identify an absence.
	Day      time.Time `json:"day"`
	Period   string    `json:"period"`
	Category string    `json:"category"`

	// Updated means local state has changed since the last successful push.
	Updated bool `json:"updated"`
	// Deleted is the soft-delete flag; a deleted row is logically absent.
	Deleted bool `json:"deleted"`

	// RemoteID is assigned by the calendar service once the event is created
	// there. Nil means the event has never been pushed.
	RemoteID *string `json:"remote_id,omitempty"`

	LastUpdate time.Time  `json:"last_update"`
	LastPush   *time.Time `json:"last_push,omitempty"`
}

// PeriodInfo returns the hour window for this event's period.
func (e *AbsenceEvent) PeriodInfo() PeriodInfo {
	return PeriodInfoFor(e.Period)
}

// Start returns the absolute start timestamp for the event.
func (e *AbsenceEvent) Start() time.Time {
	info := e.PeriodInfo()
	return time.Date(e.Day.Year(), e.Day.Month(), e.Day.Day(), info.StartHour, 0, 0, 0, e.Day.Location())
}

// End returns the absolute end timestamp for the event.
func (e *AbsenceEvent) End() time.Time {
	info := e.PeriodInfo()
	return time.Date(e.Day.Year(), e.Day.Month(), e.Day.Day(), info.EndHour, 0, 0, 0, e.Day.Location())
}

// String renders the event the way the admin views display it.
func (e *AbsenceEvent) String() string {
	out := fmt.Sprintf("%s : %s", e.Day.Format("02/01/2006"), e.PeriodInfo().Name)
	if e.Category != CategoryApproved {
		out += fmt.Sprintf(" (%s)", e.Category)
	}
	return out
}

// AbsenceRecord is a normalized absence parsed from the portal markup,
// before it is reconciled against the local store.
type AbsenceRecord struct {
	Day      time.Time `json:"day"`
	Period   string    `json:"period"`
	Category string    `json:"category"`
}
