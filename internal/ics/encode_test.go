package ics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalender/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMapEvent_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		ev           model.Event
		wantStart    time.Time
		wantDuration time.Duration
		wantAllDay   bool
	}{
		{
			name:         "full day is one day long",
			ev:           model.Event{Date: day(2024, 6, 1), IsFullDay: true},
			wantStart:    day(2024, 6, 1),
			wantDuration: 24 * time.Hour,
			wantAllDay:   true,
		},
		{
			name:         "full day ignores time and duration",
			ev:           model.Event{Date: day(2024, 6, 1), IsFullDay: true, Time: "10:00", Duration: "30"},
			wantStart:    day(2024, 6, 1),
			wantDuration: 24 * time.Hour,
			wantAllDay:   true,
		},
		{
			name:         "timed with explicit duration",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "14:30", Duration: "45"},
			wantStart:    time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
			wantDuration: 45 * time.Minute,
		},
		{
			name:         "missing duration defaults to 60",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "09:05"},
			wantStart:    time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC),
			wantDuration: 60 * time.Minute,
		},
		{
			name:         "non-numeric duration defaults to 60",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "9:5", Duration: "lang"},
			wantStart:    time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC),
			wantDuration: 60 * time.Minute,
		},
		{
			name:         "negative duration defaults to 60",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "08:00", Duration: "-15"},
			wantStart:    time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
			wantDuration: 60 * time.Minute,
		},
		{
			name:         "missing time defaults to midnight",
			ev:           model.Event{Date: day(2024, 3, 15), Duration: "90"},
			wantStart:    day(2024, 3, 15),
			wantDuration: 90 * time.Minute,
		},
		{
			name:         "malformed time defaults to midnight",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "abends"},
			wantStart:    day(2024, 3, 15),
			wantDuration: 60 * time.Minute,
		},
		{
			name:         "out of range time defaults to midnight",
			ev:           model.Event{Date: day(2024, 3, 15), Time: "25:61"},
			wantStart:    day(2024, 3, 15),
			wantDuration: 60 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapEvent(tt.ev)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantDuration, got.Duration)
			assert.Equal(t, tt.wantAllDay, got.AllDay)
		})
	}
}

func TestMapEvent_TextFields(t *testing.T) {
	got := mapEvent(model.Event{
		ID:       "abc",
		Title:    "Zeile eins\nZeile zwei",
		Date:     day(2024, 1, 2),
		Location: "Raum 4",
	})
	assert.Equal(t, "abc", got.UID)
	assert.Equal(t, "Zeile eins Zeile zwei", got.Summary)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, "Raum 4", got.Location)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "P1D", formatDuration(24*time.Hour, true))
	assert.Equal(t, "PT45M", formatDuration(45*time.Minute, false))
	assert.Equal(t, "PT90M", formatDuration(90*time.Minute, false))
	assert.Equal(t, "PT0M", formatDuration(0, false))
}

func TestEncode_WellFormed(t *testing.T) {
	events := []model.Event{
		{ID: "1", Title: "Meeting", Date: day(2024, 3, 15), Time: "14:30", Duration: "45", Location: "Büro"},
		{ID: "2", Title: "Urlaub", Date: day(2024, 6, 1), IsFullDay: true, Description: "Ostsee"},
	}

	out, err := Encode(events)
	require.NoError(t, err)

	cal, err := goical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)

	vevents := cal.Events()
	require.Len(t, vevents, 2)

	first := vevents[0]
	assert.Equal(t, "1", first.Props.Get(goical.PropUID).Value)
	assert.Equal(t, "Meeting", first.Props.Get(goical.PropSummary).Value)
	assert.Equal(t, "20240315T143000", first.Props.Get(goical.PropDateTimeStart).Value)
	assert.Equal(t, "PT45M", first.Props.Get(goical.PropDuration).Value)
	assert.Equal(t, "Büro", first.Props.Get(goical.PropLocation).Value)
	require.NotNil(t, first.Props.Get(goical.PropDescription))
	assert.Equal(t, "", first.Props.Get(goical.PropDescription).Value)

	second := vevents[1]
	assert.Equal(t, "Urlaub", second.Props.Get(goical.PropSummary).Value)
	assert.Equal(t, "20240601", second.Props.Get(goical.PropDateTimeStart).Value)
	assert.Equal(t, "P1D", second.Props.Get(goical.PropDuration).Value)
	assert.Nil(t, second.Props.Get(goical.PropLocation))
	assert.Equal(t, "Ostsee", second.Props.Get(goical.PropDescription).Value)
}

func TestEncode_Empty(t *testing.T) {
	out, err := Encode(nil)
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "END:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+ProductID)
	assert.NotContains(t, out, "VEVENT")
}

func TestEncode_PreservesOrder(t *testing.T) {
	events := []model.Event{
		{ID: "c", Title: "C", Date: day(2024, 12, 1), IsFullDay: true},
		{ID: "a", Title: "A", Date: day(2024, 1, 1), IsFullDay: true},
		{ID: "b", Title: "B", Date: day(2024, 6, 1), IsFullDay: true},
	}

	out, err := Encode(events)
	require.NoError(t, err)

	ia := strings.Index(out, "SUMMARY:A")
	ib := strings.Index(out, "SUMMARY:B")
	ic := strings.Index(out, "SUMMARY:C")
	require.True(t, ia > 0 && ib > 0 && ic > 0)
	assert.Less(t, ic, ia)
	assert.Less(t, ia, ib)
}

func TestEncode_RejectsIncompleteEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   model.Event
	}{
		{name: "no title", ev: model.Event{ID: "x", Date: day(2024, 1, 1), IsFullDay: true}},
		{name: "blank title", ev: model.Event{ID: "x", Title: "  ", Date: day(2024, 1, 1), IsFullDay: true}},
		{name: "no date", ev: model.Event{ID: "x", Title: "T", IsFullDay: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode([]model.Event{tt.ev})
			require.Error(t, err)
			assert.Empty(t, out)

			var encErr *EncodingError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, 1, encErr.Count)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeTo(t *testing.T) {
	events := []model.Event{{ID: "1", Title: "T", Date: day(2024, 1, 1), IsFullDay: true}}

	var buf bytes.Buffer
	require.NoError(t, EncodeTo(&buf, events))
	assert.Contains(t, buf.String(), "SUMMARY:T")

	err := EncodeTo(failingWriter{}, events)
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.EqualError(t, encErr.Unwrap(), "disk full")

	buf.Reset()
	err = EncodeTo(&buf, []model.Event{{ID: "2", Date: day(2024, 1, 1)}})
	require.Error(t, err)
	assert.Zero(t, buf.Len(), "nothing may be written on failure")
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "kalender-export-2024-03-05.ics", ExportFilename(now))
}
