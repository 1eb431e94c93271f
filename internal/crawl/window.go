package crawl

import (
	"time"
)

// maxWindowDays bounds the discover window span.
const maxWindowDays = 30

// Window is an inclusive date range. Bounds are date-only: both are held at
// midnight UTC and comparisons truncate their operand to its UTC calendar
// day first.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow validates and builds a Window from two dates.
func NewWindow(start, end time.Time) (Window, error) {
	s := Day(start)
	e := Day(end)
	if s.After(e) {
		return Window{}, NewError(KindArgument, "window start %s is after end %s",
			s.Format(time.DateOnly), e.Format(time.DateOnly))
	}
	if e.Sub(s) > maxWindowDays*24*time.Hour {
		return Window{}, NewError(KindArgument, "window spans more than %d days", maxWindowDays)
	}
	return Window{Start: s, End: e}, nil
}

// ParseWindow builds a Window from CLI-style YYYY-MM-DD strings. When both
// are empty the window degenerates to {today, today} in the host's local
// date. Providing exactly one bound is rejected.
func ParseWindow(startStr, endStr string, now time.Time) (Window, error) {
	if startStr == "" && endStr == "" {
		// Degenerate window uses the host's local calendar date.
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return Window{Start: today, End: today}, nil
	}
	if startStr == "" || endStr == "" {
		return Window{}, NewError(KindArgument, "start and end dates must be provided together")
	}
	start, err := time.Parse(time.DateOnly, startStr)
	if err != nil {
		return Window{}, NewError(KindArgument, "invalid start date %q", startStr)
	}
	end, err := time.Parse(time.DateOnly, endStr)
	if err != nil {
		return Window{}, NewError(KindArgument, "invalid end date %q", endStr)
	}
	return NewWindow(start, end)
}

// Contains reports whether t's UTC calendar day falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days lists every day in the window, newest first.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.End; !d.Before(w.Start); d = d.AddDate(0, 0, -1) {
		days = append(days, d)
	}
	return days
}

// Intersects reports whether any day of [start, end] falls inside the
// window. Used to prune date-indexed sub-sitemaps.
func (w Window) Intersects(start, end time.Time) bool {
	return !Day(end).Before(w.Start) && !Day(start).After(w.End)
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
