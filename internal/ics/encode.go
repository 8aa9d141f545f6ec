package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "kalender/internal/log"
	"kalender/internal/model"
)

const (
	// ProductID identifies documents written by this package.
	ProductID = "-//kalender//EN"

	// ContentType is the MIME type of an exported document.
	ContentType = "text/calendar; charset=utf-8"

	defaultDurationMinutes = 60

	// floating local date-time, no zone suffix
	dateTimeLayout = "20060102T150405"
	dateLayout     = "20060102"
)

var (
	errMissingTitle = errors.New("event has no title")
	errMissingDate  = errors.New("event has no date")
)

// vevent is an Event with every default resolved, ready to serialize.
type vevent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	AllDay      bool
	Duration    time.Duration
}

// mapEvent resolves the per-field defaults:
//   - full-day: date-only start, duration one day
//   - timed: start = date + HH:MM from Time (0:0 when missing or malformed),
//     duration = Duration minutes (60 when missing, non-numeric or negative)
//   - description defaults to ""; location passes through
func mapEvent(ev model.Event) vevent {
	out := vevent{
		UID:         ev.ID,
		Summary:     singleLine(ev.Title),
		Description: singleLine(ev.Description),
		Location:    singleLine(ev.Location),
		AllDay:      ev.IsFullDay,
	}

	y, m, d := ev.Date.Date()
	if ev.IsFullDay {
		out.Start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		out.Duration = 24 * time.Hour
		return out
	}

	hour, minute := parseClock(ev.Time)
	out.Start = time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
	out.Duration = time.Duration(parseMinutes(ev.Duration)) * time.Minute
	return out
}

// parseClock reads "H:M" or "HH:MM". Anything else is 0:0.
func parseClock(s string) (int, int) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, 0
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0
	}
	return hour, minute
}

func parseMinutes(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return defaultDurationMinutes
	}
	return n
}

// singleLine folds line breaks into spaces. Values are written unescaped,
// so a raw newline would split the property.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// formatDuration renders d as an RFC 5545 DURATION value.
func formatDuration(d time.Duration, allDay bool) string {
	if allDay {
		return fmt.Sprintf("P%dD", int(d/(24*time.Hour)))
	}
	return fmt.Sprintf("PT%dM", int(d/time.Minute))
}

// Encode serializes events into one interchange document, one VEVENT per
// event in input order. An empty slice yields a well-formed empty calendar.
func Encode(events []model.Event) (string, error) {
	var buf bytes.Buffer
	if err := encode(&buf, events, time.Now()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EncodeTo writes the document for events to w. Nothing is written when
// encoding fails.
func EncodeTo(w io.Writer, events []model.Event) error {
	var buf bytes.Buffer
	if err := encode(&buf, events, time.Now()); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return &EncodingError{Count: len(events), Err: err}
	}
	return nil
}

func encode(buf *bytes.Buffer, events []model.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)

	for i, ev := range events {
		ve := mapEvent(ev)
		if strings.TrimSpace(ve.Summary) == "" {
			return &EncodingError{Count: len(events), Err: fmt.Errorf("event %d (%s): %w", i, ve.UID, errMissingTitle)}
		}
		if ev.Date.IsZero() {
			return &EncodingError{Count: len(events), Err: fmt.Errorf("event %d (%s): %w", i, ve.UID, errMissingDate)}
		}

		uid := ve.UID
		if uid == "" {
			uid = model.NewID()
		}

		e := cal.AddEvent(uid)
		e.SetDtStampTime(stamp)
		if ve.AllDay {
			e.SetAllDayStartAt(ve.Start)
		} else {
			e.SetProperty(ical.ComponentPropertyDtStart, ve.Start.Format(dateTimeLayout))
		}
		e.SetProperty(ical.ComponentProperty(ical.PropertyDuration), formatDuration(ve.Duration, ve.AllDay))
		e.SetProperty(ical.ComponentPropertySummary, ve.Summary)
		e.SetProperty(ical.ComponentPropertyDescription, ve.Description)
		if ve.Location != "" {
			e.SetProperty(ical.ComponentPropertyLocation, ve.Location)
		}
	}

	if err := cal.SerializeTo(buf); err != nil {
		buf.Reset()
		return &EncodingError{Count: len(events), Err: err}
	}

	appLog.Debug("ics encode completed", "event_count", len(events), "bytes", buf.Len())
	return nil
}

// ExportFilename names an export file after the given day.
func ExportFilename(now time.Time) string {
	return "kalender-export-" + now.Format("2006-01-02") + ".ics"
}
