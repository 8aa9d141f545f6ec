package ics

import (
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "kalender/internal/log"
	"kalender/internal/model"
)

const (
	keyBegin       = "BEGIN"
	keyEnd         = "END"
	keySummary     = "SUMMARY"
	keyDtStart     = "DTSTART"
	keyDuration    = "DURATION"
	keyLocation    = "LOCATION"
	keyDescription = "DESCRIPTION"

	blockEvent = "VEVENT"
)

// scanState is the position of the line scanner relative to VEVENT blocks.
type scanState int

const (
	stateIdle scanState = iota
	stateInBlock
)

func (s scanState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateInBlock:
		return "in-block"
	default:
		return "unknown"
	}
}

// draft accumulates the fields of the VEVENT being scanned. Completeness is
// only checked when the block ends.
type draft struct {
	title       string
	date        time.Time
	hasDate     bool
	clock       string // "HH:MM", empty for a date-only start
	minutes     string // from DURATION, timed events only
	location    string
	description string
}

func (d *draft) setStart(value string) {
	date, clock, ok := parseStart(value)
	if !ok {
		return
	}
	d.date = date
	d.hasDate = true
	d.clock = clock
}

// complete reports whether the draft can become an Event.
func (d *draft) complete() bool {
	return d.title != "" && d.hasDate
}

func (d *draft) event() model.Event {
	ev := model.Event{
		ID:          model.NewID(),
		Title:       d.title,
		Date:        d.date,
		IsFullDay:   d.clock == "",
		Time:        d.clock,
		Location:    d.location,
		Description: d.description,
	}
	if !ev.IsFullDay {
		ev.Duration = d.minutes
	}
	return ev
}

// decoder is the block-scoped line scanner.
type decoder struct {
	state scanState
	// depth counts components nested inside the current VEVENT
	// (VALARM and friends); their properties are not the event's.
	depth     int
	cur       draft
	out       []model.Event
	discarded int
}

func (d *decoder) line(key, value string) {
	switch d.state {
	case stateIdle:
		if key == keyBegin && strings.EqualFold(value, blockEvent) {
			d.begin()
		}
	case stateInBlock:
		d.inBlock(key, value)
	}
}

func (d *decoder) begin() {
	d.state = stateInBlock
	d.depth = 0
	d.cur = draft{}
}

func (d *decoder) inBlock(key, value string) {
	switch key {
	case keyBegin:
		if strings.EqualFold(value, blockEvent) {
			// unterminated block, start over
			d.discarded++
			d.begin()
			return
		}
		d.depth++
		return
	case keyEnd:
		if d.depth > 0 {
			d.depth--
			return
		}
		if strings.EqualFold(value, blockEvent) {
			d.end()
		}
		return
	}

	if d.depth > 0 {
		return
	}

	switch key {
	case keySummary:
		d.cur.title = ical.FromText(value)
	case keyDtStart:
		d.cur.setStart(value)
	case keyDuration:
		if m, ok := parseDuration(value); ok {
			d.cur.minutes = m
		}
	case keyLocation:
		d.cur.location = ical.FromText(value)
	case keyDescription:
		d.cur.description = ical.FromText(value)
	}
}

// end closes the current block: a complete draft is emitted, anything else
// is dropped without error.
func (d *decoder) end() {
	if d.cur.complete() {
		d.out = append(d.out, d.cur.event())
	} else {
		d.discarded++
		appLog.Debug("ics decode: incomplete block skipped",
			"has_title", d.cur.title != "",
			"has_date", d.cur.hasDate,
		)
	}
	d.cur = draft{}
	d.state = stateIdle
}

// Decode reads r to the end and returns every complete VEVENT found, in
// the order their END lines appear. Malformed lines and incomplete blocks
// are skipped; the only error is a *ReadError when r cannot be read.
func Decode(r io.Reader) ([]model.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return DecodeString(string(data)), nil
}

// DecodeString is Decode over text already in memory.
func DecodeString(text string) []model.Event {
	text = strings.TrimPrefix(text, "\uFEFF")

	d := &decoder{out: make([]model.Event, 0)}
	for _, l := range unfold(strings.Split(text, "\n")) {
		// after unfolding, so a rune split across a fold survives
		key, value := splitLine(strings.ToValidUTF8(l, "\uFFFD"))
		d.line(key, value)
	}

	if d.state == stateInBlock {
		d.discarded++
	}

	appLog.Debug("ics decode completed", "event_count", len(d.out), "discarded_blocks", d.discarded)
	return d.out
}

// unfold joins folded continuation lines onto the line before them and
// strips carriage returns. See isContinuation for what counts as a fold.
func unfold(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if len(out) > 0 && isContinuation(l) {
			out[len(out)-1] += l[1:]
			continue
		}
		out = append(out, l)
	}
	return out
}

// isContinuation reports whether l is a fold: a leading space or tab whose
// text is not a property line such as "SUMMARY:" or "DTSTART;". Indented
// property lines stay lines of their own.
func isContinuation(l string) bool {
	if l == "" || (l[0] != ' ' && l[0] != '\t') {
		return false
	}
	return !startsWithPropertyName(strings.TrimLeft(l, " \t"))
}

// startsWithPropertyName matches an upper-case name token ([A-Z0-9-],
// leading letter) directly followed by ':' or ';'.
func startsWithPropertyName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case i > 0 && (c == '-' || (c >= '0' && c <= '9')):
		case i > 0 && (c == ':' || c == ';'):
			return true
		default:
			return false
		}
	}
	return false
}

// splitLine returns the property name (upper-cased, parameters stripped)
// and the trimmed value. Colons after the first belong to the value.
func splitLine(l string) (string, string) {
	rawKey, value, _ := strings.Cut(l, ":")
	name, _, _ := strings.Cut(rawKey, ";")
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value)
}

// parseStart accepts YYYYMMDD or YYYYMMDDTHHMM[SS][Z]. Trailing seconds
// and zone markers are ignored; the wall clock is taken as written.
func parseStart(v string) (time.Time, string, bool) {
	datePart, timePart, hasTime := strings.Cut(v, "T")
	if len(datePart) != 8 || !allDigits(datePart) {
		return time.Time{}, "", false
	}
	date, err := time.Parse(dateLayout, datePart)
	if err != nil {
		return time.Time{}, "", false
	}
	if !hasTime {
		return date, "", true
	}

	if len(timePart) < 4 || !allDigits(timePart[:4]) {
		return time.Time{}, "", false
	}
	hour := int(timePart[0]-'0')*10 + int(timePart[1]-'0')
	minute := int(timePart[2]-'0')*10 + int(timePart[3]-'0')
	if hour > 23 || minute > 59 {
		return time.Time{}, "", false
	}
	return date, timePart[:2] + ":" + timePart[2:4], true
}

// parseDuration reads the minutes of a DURATION value such as "PT45M",
// "PT1H30M" or "P1DT2H". Seconds are dropped; negative durations are
// rejected.
func parseDuration(v string) (string, bool) {
	v = strings.ToUpper(strings.TrimPrefix(v, "+"))
	rest, ok := strings.CutPrefix(v, "P")
	if !ok || rest == "" {
		return "", false
	}

	total, inTime := 0, false
	for rest != "" {
		if rest[0] == 'T' {
			inTime = true
			rest = rest[1:]
			continue
		}
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			return "", false
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil {
			return "", false
		}
		switch unit := rest[i]; {
		case unit == 'W' && !inTime:
			total += n * 7 * 24 * 60
		case unit == 'D' && !inTime:
			total += n * 24 * 60
		case unit == 'H' && inTime:
			total += n * 60
		case unit == 'M' && inTime:
			total += n
		case unit == 'S' && inTime:
			total += n / 60
		default:
			return "", false
		}
		rest = rest[i+1:]
	}
	return strconv.Itoa(total), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
