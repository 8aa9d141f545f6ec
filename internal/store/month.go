package store

import (
	"strings"
	"time"

	"kalender/internal/model"
)

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time     `json:"date"`
	InMonth bool          `json:"in_month"`
	Events  []model.Event `json:"events"`
}

// Week is one row of the month grid, always seven days.
type Week struct {
	Days []Day `json:"days"`
}

// MonthView is the calendar grid for one month, padded with days of the
// neighbouring months so every week is complete.
type MonthView struct {
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	WeekStart time.Weekday `json:"week_start"`
	Weeks     []Week       `json:"weeks"`
	Total     int          `json:"total"` // events inside the month proper
}

// ParseWeekStart maps "monday" / "sunday" to a weekday; anything else is Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Month builds the grid for year/month. Events are bucketed by their
// civil date; padding days carry their events too so the grid can show them.
func (s *Store) Month(year int, month time.Month, weekStart time.Weekday) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	gridStart := first.AddDate(0, 0, -daysBack(first.Weekday(), weekStart))
	gridEnd := last.AddDate(0, 0, 6-daysBack(last.Weekday(), weekStart))

	byDay := make(map[time.Time][]model.Event)
	total := 0
	for _, ev := range s.List() {
		d := model.CivilDate(ev.Date)
		if d.Before(gridStart) || d.After(gridEnd) {
			continue
		}
		byDay[d] = append(byDay[d], ev)
		if d.Month() == month && d.Year() == year {
			total++
		}
	}

	view := MonthView{
		Year:      year,
		Month:     month,
		WeekStart: weekStart,
		Weeks:     make([]Week, 0, 6),
		Total:     total,
	}

	for d := gridStart; !d.After(gridEnd); {
		week := Week{Days: make([]Day, 0, 7)}
		for i := 0; i < 7; i++ {
			events := byDay[d]
			if events == nil {
				events = []model.Event{}
			}
			week.Days = append(week.Days, Day{
				Date:    d,
				InMonth: d.Month() == month,
				Events:  events,
			})
			d = d.AddDate(0, 0, 1)
		}
		view.Weeks = append(view.Weeks, week)
	}

	return view
}

// daysBack is how many days lie between weekStart and wd going backwards.
func daysBack(wd, weekStart time.Weekday) int {
	return (int(wd) - int(weekStart) + 7) % 7
}
