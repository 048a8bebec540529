package tracker

import (
	"time"

	"daya/internal/calendar"
)

// Predicate answers whether a habit counts as done on a day.
type Predicate interface {
	IsDone(date time.Time) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(time.Time) bool

func (f PredicateFunc) IsDone(date time.Time) bool { return f(date) }

// DayStatus aggregates several habits on one day for the calendar dots.
type DayStatus int

const (
	StatusNone DayStatus = iota
	StatusSome
	StatusAll
)

func (s DayStatus) String() string {
	switch s {
	case StatusAll:
		return "all"
	case StatusSome:
		return "some"
	default:
		return "none"
	}
}

// CombinedDay is one cell of a rolling combined window.
type CombinedDay struct {
	Date    time.Time
	Label   string
	AllDone bool
}

// Combined evaluates an ordered set of predicates together.
type Combined struct {
	cal   calendar.Calendar
	preds []Predicate
}

// NewCombined returns a combined view over preds.
func NewCombined(cal calendar.Calendar, preds ...Predicate) *Combined {
	return &Combined{cal: cal, preds: preds}
}

// AllDone reports whether every predicate holds on date. No predicates means false.
func (c *Combined) AllDone(date time.Time) bool {
	if len(c.preds) == 0 {
		return false
	}
	for _, p := range c.preds {
		if !p.IsDone(date) {
			return false
		}
	}
	return true
}

// AnyDone reports whether at least one predicate holds on date.
func (c *Combined) AnyDone(date time.Time) bool {
	for _, p := range c.preds {
		if p.IsDone(date) {
			return true
		}
	}
	return false
}

// IsDone makes a Combined usable wherever a single Predicate is.
func (c *Combined) IsDone(date time.Time) bool {
	return c.AllDone(date)
}

// Status reduces the predicates on date to none, some or all.
func (c *Combined) Status(date time.Time) DayStatus {
	done := 0
	for _, p := range c.preds {
		if p.IsDone(date) {
			done++
		}
	}
	switch {
	case done == 0:
		return StatusNone
	case done == len(c.preds):
		return StatusAll
	default:
		return StatusSome
	}
}

// Streak counts consecutive days ending today on which all predicates hold.
func (c *Combined) Streak() int {
	return c.StreakFrom(c.cal.Today())
}

// StreakFrom counts consecutive all-done days ending at from.
func (c *Combined) StreakFrom(from time.Time) int {
	return streak(c.cal, from, c.AllDone)
}

// RollingWeek returns the seven days ending today, oldest first.
func (c *Combined) RollingWeek() [7]CombinedDay {
	var days [7]CombinedDay
	today := c.cal.Today()
	for i := range days {
		date := c.cal.AddDays(today, i-6)
		days[i] = CombinedDay{Date: date, Label: c.cal.Label(date), AllDone: c.AllDone(date)}
	}
	return days
}

// WeekProgress returns the Sunday-anchored week containing ref as all-done flags.
func (c *Combined) WeekProgress(ref time.Time) [7]bool {
	if ref.IsZero() {
		ref = c.cal.Today()
	}

	var week [7]bool
	start := c.cal.WeekStart(ref)
	for i := range week {
		week[i] = c.AllDone(c.cal.AddDays(start, i))
	}
	return week
}
