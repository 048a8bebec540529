// Package calendar maps instants onto local calendar days.
//
// Every stored record is keyed by the canonical day string produced by Key,
// so two instants on the same local day always address the same record.
package calendar

import (
	"fmt"
	"time"
)

// KeyLayout is the canonical day layout used in every storage key.
const KeyLayout = "2006-01-02"

// Calendar resolves days in a fixed location with an injectable clock.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a calendar for loc. A nil loc means time.Local, a nil now means time.Now.
func New(loc *time.Location, now func() time.Time) Calendar {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return Calendar{loc: loc, now: now}
}

// Fixed returns a calendar whose clock is frozen at t. Used by tests and the CLI.
func Fixed(loc *time.Location, t time.Time) Calendar {
	return New(loc, func() time.Time { return t })
}

// Location returns the calendar's location.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Now returns the current instant in the calendar's location.
func (c Calendar) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.Location())
	}
	return c.now().In(c.Location())
}

// Today returns local midnight of the current day.
func (c Calendar) Today() time.Time {
	return c.Day(c.Now())
}

// Key returns the canonical YYYY-MM-DD key of the local day containing t.
func (c Calendar) Key(t time.Time) string {
	return t.In(c.Location()).Format(KeyLayout)
}

// ParseKey parses a canonical key back into local midnight.
func (c Calendar) ParseKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, key, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t, nil
}

// Day normalises t to local midnight.
func (c Calendar) Day(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// AddDays moves t by n calendar days and returns local midnight of the result.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	d := c.Day(t)
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, c.Location())
}

// DaysBetween counts whole calendar days from a to b. It is negative when b is
// before a and is unaffected by DST transitions.
func (c Calendar) DaysBetween(a, b time.Time) int {
	a, b = c.Day(a), c.Day(b)
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// SameDay reports whether a and b fall on the same local day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Key(a) == c.Key(b)
}

// WeekStart returns the most recent Sunday on or before t.
func (c Calendar) WeekStart(t time.Time) time.Time {
	d := c.Day(t)
	return c.AddDays(d, -int(d.Weekday()))
}

// MonthStart returns the first day of the month containing t.
func (c Calendar) MonthStart(t time.Time) time.Time {
	d := c.Day(t)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, c.Location())
}

// Label returns the short weekday label of t, e.g. "Sun".
func (c Calendar) Label(t time.Time) string {
	return t.In(c.Location()).Format("Mon")
}
