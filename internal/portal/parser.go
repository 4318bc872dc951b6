package portal

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/absence-sync/backend/internal/remote"
	"github.com/absence-sync/backend/internal/storage/models"
)

const (
	// dateAttr is the cell attribute carrying the cell's calendar date.
	dateAttr = "cd"
	// dateLayout is the portal's date format (day first).
	dateLayout = "02/01/2006"

	// absenceMarker must appear in a cell's annotation for the cell to
	// count as an absence at all.
	absenceMarker = "Holiday"

	bankHolidayMarker = "Bank Holiday"
	requestedMarker   = "Request"
)

// Parser turns raw planner markup into normalized absence records.
//
// It scans table cells carrying a date attribute; earlier portal revisions
// were parsed by position (exactly three header rows) but the layout drifted,
// so this is the relaxed pure cell-scanning form.
type Parser struct{}

// NewParser creates a planner markup parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts absence records from one planner document. Cells without a
// date attribute or without the absence marker are ignored. A document with
// no table cells at all fails with a markup format error rather than being
// treated as an empty month - otherwise a silently changed portal layout
// would sweep every local event as stale.
func (p *Parser) Parse(markup string) ([]models.AbsenceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &remote.MarkupFormatError{Cells: 0, Reason: "unparseable document"}
	}

	cells := doc.Find("td")
	if cells.Length() == 0 {
		return nil, &remote.MarkupFormatError{Cells: 0, Reason: "no table cells in planner document"}
	}

	var records []models.AbsenceRecord
	var parseErr error

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		dateValue, ok := cell.Attr(dateAttr)
		if !ok {
			return true
		}

		annotation := cell.Text()
		if !strings.Contains(annotation, absenceMarker) {
			return true
		}

		day, err := time.ParseInLocation(dateLayout, dateValue, time.UTC)
		if err != nil {
			parseErr = &remote.MarkupFormatError{
				Cells:  cells.Length(),
				Reason: "bad date attribute " + dateValue,
			}
			return false
		}

		records = append(records, models.AbsenceRecord{
			Day:      day,
			Period:   periodFromAnnotation(annotation),
			Category: categoryFromAnnotation(annotation),
		})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return records, nil
}

// periodFromAnnotation infers the half-day period by substring match,
// defaulting to the whole day.
func periodFromAnnotation(annotation string) string {
	switch {
	case strings.Contains(annotation, "AM"):
		return models.PeriodMorning
	case strings.Contains(annotation, "PM"):
		return models.PeriodAfternoon
	default:
		return models.PeriodAllDay
	}
}

// categoryFromAnnotation infers the absence category by substring match.
// Bank holidays are checked first since their annotation also contains the
// generic absence marker.
func categoryFromAnnotation(annotation string) string {
	switch {
	case strings.Contains(annotation, bankHolidayMarker):
		return models.CategoryBankHoliday
	case strings.Contains(annotation, requestedMarker):
		return models.CategoryRequested
	default:
		return models.CategoryApproved
	}
}
