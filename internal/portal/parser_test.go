package portal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absence-sync/backend/internal/remote"
	"github.com/absence-sync/backend/internal/storage/models"
)

func TestParserExtractsRecords(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   []models.AbsenceRecord
	}{
		{
			name:   "full day approved",
			markup: `<table><tr><td cd="15/07/2024">Holiday</td></tr></table>`,
			want: []models.AbsenceRecord{
				{Day: date(2024, 7, 15), Period: models.PeriodAllDay, Category: models.CategoryApproved},
			},
		},
		{
			name:   "morning request",
			markup: `<table><tr><td cd="01/03/2024">Holiday AM Request</td></tr></table>`,
			want: []models.AbsenceRecord{
				{Day: date(2024, 3, 1), Period: models.PeriodMorning, Category: models.CategoryRequested},
			},
		},
		{
			name:   "afternoon approved",
			markup: `<table><tr><td cd="02/03/2024">Holiday PM</td></tr></table>`,
			want: []models.AbsenceRecord{
				{Day: date(2024, 3, 2), Period: models.PeriodAfternoon, Category: models.CategoryApproved},
			},
		},
		{
			name:   "bank holiday",
			markup: `<table><tr><td cd="25/12/2024">Bank Holiday</td></tr></table>`,
			want: []models.AbsenceRecord{
				{Day: date(2024, 12, 25), Period: models.PeriodAllDay, Category: models.CategoryBankHoliday},
			},
		},
		{
			name: "cells without the marker are ignored",
			markup: `<table><tr>
				<td cd="01/06/2024">Working</td>
				<td cd="02/06/2024">Holiday</td>
				<td>Holiday</td>
			</tr></table>`,
			want: []models.AbsenceRecord{
				{Day: date(2024, 6, 2), Period: models.PeriodAllDay, Category: models.CategoryApproved},
			},
		},
		{
			name:   "month with no absences",
			markup: `<table><tr><td cd="01/06/2024"></td><td cd="02/06/2024"></td></tr></table>`,
			want:   nil,
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := parser.Parse(tt.markup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, records)
		})
	}
}

func TestParserRejectsCellFreeDocument(t *testing.T) {
	parser := NewParser()

	_, err := parser.Parse(`<html><body><p>Maintenance in progress</p></body></html>`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrMarkupFormat))

	var formatErr *remote.MarkupFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 0, formatErr.Cells)
}

func TestParserRejectsBadDateAttribute(t *testing.T) {
	parser := NewParser()

	markup := `<table><tr>
		<td cd="01/06/2024">Holiday</td>
		<td cd="not-a-date">Holiday</td>
	</tr></table>`

	_, err := parser.Parse(markup)
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrMarkupFormat))

	var formatErr *remote.MarkupFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 2, formatErr.Cells)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
