// Package window computes half-open local-calendar time ranges used to bound
// due-date queries: a day, a week, a month, or an arbitrary span of days.
package window

import (
	"fmt"
	"time"

	"github.com/halden/nextstep/internal/model"
)

// Window is a half-open interval [Start, End) on the local wall clock.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartMillis returns the inclusive start as epoch milliseconds.
func (w Window) StartMillis() int64 { return w.Start.UnixMilli() }

// EndMillis returns the exclusive end as epoch milliseconds.
func (w Window) EndMillis() int64 { return w.End.UnixMilli() }

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Days returns the local-midnight start of every calendar day in the window.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := Midnight(w.Start); d.Before(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Midnight truncates t to the start of its local calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today returns the calendar day containing now.
func Today(now time.Time) Window {
	start := Midnight(now)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week returns the 7-day window starting on the locale's first day of week
// at or before now.
func Week(now time.Time, firstDay time.Weekday) Window {
	start := Midnight(now)
	back := (int(start.Weekday()) - int(firstDay) + 7) % 7
	start = start.AddDate(0, 0, -back)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Month returns the calendar month window: first day at local midnight up to
// the first day of the following month.
func Month(year int, month time.Month, loc *time.Location) (Window, error) {
	if month < time.January || month > time.December {
		return Window{}, fmt.Errorf("%w: month %d out of range", model.ErrInvalidArgument, month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// DayRange normalizes an arbitrary span to full-day boundaries, inclusive of
// both endpoint days.
func DayRange(start, end time.Time) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: range end before start", model.ErrInvalidArgument)
	}
	return Window{Start: Midnight(start), End: Midnight(end).AddDate(0, 0, 1)}, nil
}
