package models

import (
	"testing"
	"time"
)

func TestPeriodInfoFor(t *testing.T) {
	tests := []struct {
		name      string
		period    string
		startHour int
		endHour   int
		display   string
	}{
		{"morning", PeriodMorning, 8, 14, "Morning"},
		{"afternoon", PeriodAfternoon, 14, 20, "Afternoon"},
		{"all day", PeriodAllDay, 8, 20, "All Day"},
		{"unknown value", "XYZ", 8, 20, "Unknown period - XYZ"},
		{"empty value", "", 8, 20, "Unknown period - "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := PeriodInfoFor(tt.period)
			if info.StartHour != tt.startHour || info.EndHour != tt.endHour {
				t.Errorf("hours = (%d, %d), want (%d, %d)",
					info.StartHour, info.EndHour, tt.startHour, tt.endHour)
			}
			if info.Name != tt.display {
				t.Errorf("name = %q, want %q", info.Name, tt.display)
			}
		})
	}
}

func TestAbsenceEventStartEnd(t *testing.T) {
	event := AbsenceEvent{
		Day:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Period: PeriodAfternoon,
	}

	wantStart := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	if !event.Start().Equal(wantStart) {
		t.Errorf("Start() = %v, want %v", event.Start(), wantStart)
	}
	if !event.End().Equal(wantEnd) {
		t.Errorf("End() = %v, want %v", event.End(), wantEnd)
	}
}

func TestAbsenceEventString(t *testing.T) {
	day := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event AbsenceEvent
		want  string
	}{
		{
			"approved omits category",
			AbsenceEvent{Day: day, Period: PeriodAllDay, Category: CategoryApproved},
			"25/12/2024 : All Day",
		},
		{
			"bank holiday shows category",
			AbsenceEvent{Day: day, Period: PeriodAllDay, Category: CategoryBankHoliday},
			"25/12/2024 : All Day (BANK)",
		},
		{
			"requested morning",
			AbsenceEvent{Day: day, Period: PeriodMorning, Category: CategoryRequested},
			"25/12/2024 : Morning (REQUESTED)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentitySyncSummary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)
	stale := now.Add(-36 * time.Hour)

	tests := []struct {
		name     string
		identity Identity
		want     string
	}{
		{
			"sync disabled",
			Identity{SyncEnabled: false},
			SyncSummaryDisabled,
		},
		{
			"portal errored",
			Identity{SyncEnabled: true, PortalLastSyncError: true},
			SyncSummaryBad,
		},
		{
			"exchange errored",
			Identity{SyncEnabled: true, ExchangeLastSyncError: true},
			SyncSummaryBad,
		},
		{
			"never synced",
			Identity{SyncEnabled: true},
			SyncSummaryOK,
		},
		{
			"only one side ever synced",
			Identity{SyncEnabled: true, PortalLastSyncAt: &recent},
			SyncSummaryOK,
		},
		{
			"one side stale",
			Identity{SyncEnabled: true, PortalLastSyncAt: &recent, ExchangeLastSyncAt: &stale},
			SyncSummaryOK,
		},
		{
			"both sides fresh",
			Identity{SyncEnabled: true, PortalLastSyncAt: &recent, ExchangeLastSyncAt: &recent},
			SyncSummaryGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.SyncSummary(now); got != tt.want {
				t.Errorf("SyncSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
