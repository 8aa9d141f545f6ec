package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalender/internal/model"
)

func TestRoundTrip_TimedMeeting(t *testing.T) {
	in := model.Event{
		ID:        model.NewID(),
		Title:     "Meeting",
		Date:      day(2024, 3, 15),
		IsFullDay: false,
		Time:      "14:30",
		Duration:  "45",
	}

	out, err := Encode([]model.Event{in})
	require.NoError(t, err)

	events := DecodeString(out)
	require.Len(t, events, 1)
	got := events[0]
	assert.Equal(t, "Meeting", got.Title)
	assert.Equal(t, day(2024, 3, 15), got.Date)
	assert.False(t, got.IsFullDay)
	assert.Equal(t, "14:30", got.Time)
	assert.Equal(t, "45", got.Duration)
}

func TestRoundTrip_Empty(t *testing.T) {
	out, err := Encode([]model.Event{})
	require.NoError(t, err)
	assert.Empty(t, DecodeString(out))
}

func TestRoundTrip_Mixed(t *testing.T) {
	in := []model.Event{
		{ID: "1", Title: "Urlaub", Date: day(2024, 7, 1), IsFullDay: true, Location: "Rügen"},
		{ID: "2", Title: "Zahnarzt", Date: day(2024, 7, 3), Time: "8:15", Description: "Kontrolle"},
		{ID: "3", Title: "Ohne Uhrzeit", Date: day(2024, 7, 4), Time: "kaputt"},
		{ID: "4", Title: "Ein Titel, der deutlich länger ist als fünfundsiebzig Zeichen und deshalb umbrochen wird", Date: day(2024, 7, 5), IsFullDay: true},
	}

	out, err := Encode(in)
	require.NoError(t, err)

	got := DecodeString(out)
	require.Len(t, got, len(in))
	for i := range in {
		assert.Equal(t, in[i].Title, got[i].Title)
		assert.Equal(t, in[i].Date, got[i].Date)
		assert.Equal(t, in[i].IsFullDay, got[i].IsFullDay)
	}

	assert.Equal(t, "Rügen", got[0].Location)
	assert.Equal(t, "08:15", got[1].Time)
	assert.Equal(t, "Kontrolle", got[1].Description)
	assert.Equal(t, "00:00", got[2].Time)
}

func TestDecode_TwiceDoublesWithoutSharing(t *testing.T) {
	text := lines(
		"BEGIN:VEVENT", "SUMMARY:Eins", "DTSTART:20240601", "LOCATION:Hier", "END:VEVENT",
		"BEGIN:VEVENT", "SUMMARY:Zwei", "DTSTART:20240602T1200", "END:VEVENT",
	)

	first := DecodeString(text)
	second := DecodeString(text)
	all := append(append([]model.Event{}, first...), second...)
	require.Len(t, all, 4)

	ids := map[string]bool{}
	for _, ev := range all {
		ids[ev.ID] = true
	}
	assert.Len(t, ids, 4)

	assert.Equal(t, "Hier", all[0].Location)
	assert.Empty(t, all[1].Location)
	assert.Equal(t, "Hier", all[2].Location)
	assert.Empty(t, all[3].Location)
	assert.Equal(t, "12:00", all[3].Time)
}

func TestRoundTrip_SpecialCharacters(t *testing.T) {
	in := []model.Event{
		{
			ID:          "1",
			Title:       "Lunch; Team, Q1",
			Date:        day(2024, 3, 15),
			Time:        "12:00",
			Description: `C:\temp, notes; siehe \\server`,
			Location:    "Raum 3; EG, links",
		},
		{
			ID:        "2",
			Title:     `Backslash \ am Ende \`,
			Date:      day(2024, 3, 16),
			IsFullDay: true,
			Location:  `a\,b`,
		},
	}

	out, err := Encode(in)
	require.NoError(t, err)

	// Two more cycles must not add escapes.
	got := DecodeString(out)
	for range 2 {
		require.Len(t, got, len(in))
		out, err = Encode(got)
		require.NoError(t, err)
		got = DecodeString(out)
	}

	require.Len(t, got, len(in))
	for i := range in {
		assert.Equal(t, in[i].Title, got[i].Title)
		assert.Equal(t, in[i].Description, got[i].Description)
		assert.Equal(t, in[i].Location, got[i].Location)
	}
}
