package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for Event.Date in forms and JSON.
const DateLayout = "2006-01-02"

var (
	ErrTitleRequired = errors.New("title is required")
	ErrDateRequired  = errors.New("date is required")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrTimeRequired  = errors.New("time is required when the event is not full-day")
	ErrMissingID     = errors.New("event id is empty")
	ErrTimeOnFullDay = errors.New("full-day event must not carry a time")
)

// Event is a single calendar entry.
//
// Date is a civil date stored at midnight UTC; the wall-clock part of a
// timed event lives in Time ("HH:MM"). Events are never mutated in place:
// an edit is a new Event with a new ID.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	IsFullDay   bool      `json:"is_full_day"`
	Time        string    `json:"time,omitempty"`
	Duration    string    `json:"duration,omitempty"` // minutes
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Input carries the raw field values submitted by the UI.
type Input struct {
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	IsFullDay   bool   `json:"is_full_day"`
	Time        string `json:"time,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// NewEvent validates in and builds an Event with a fresh ID.
// Only presence is checked; Time and Duration are kept verbatim.
func NewEvent(in Input) (Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Event{}, ErrTitleRequired
	}

	rawDate := strings.TrimSpace(in.Date)
	if rawDate == "" {
		return Event{}, ErrDateRequired
	}
	date, err := time.Parse(DateLayout, rawDate)
	if err != nil {
		return Event{}, ErrInvalidDate
	}

	ev := Event{
		ID:          NewID(),
		Title:       title,
		Date:        date,
		IsFullDay:   in.IsFullDay,
		Description: in.Description,
		Location:    in.Location,
	}

	if !in.IsFullDay {
		ev.Time = strings.TrimSpace(in.Time)
		if ev.Time == "" {
			return Event{}, ErrTimeRequired
		}
		ev.Duration = strings.TrimSpace(in.Duration)
	}

	return ev, nil
}

// NewID returns a fresh opaque event identifier.
func NewID() string {
	return uuid.NewString()
}

// CivilDate truncates t to midnight UTC of its own calendar day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks the Event invariants.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if e.Date.IsZero() {
		return ErrDateRequired
	}
	if e.IsFullDay && e.Time != "" {
		return ErrTimeOnFullDay
	}
	if !e.IsFullDay && e.Time == "" {
		return ErrTimeRequired
	}
	return nil
}

// StartsOn reports whether the event falls on the calendar day of day.
func (e *Event) StartsOn(day time.Time) bool {
	ey, em, ed := e.Date.Date()
	dy, dm, dd := day.Date()
	return ey == dy && em == dm && ed == dd
}

// Before orders events by date, then by time of day. Full-day events sort
// ahead of timed events on the same day.
func (e *Event) Before(other *Event) bool {
	if !e.Date.Equal(other.Date) {
		return e.Date.Before(other.Date)
	}
	if e.IsFullDay != other.IsFullDay {
		return e.IsFullDay
	}
	return e.Time < other.Time
}
