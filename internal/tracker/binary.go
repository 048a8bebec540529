// Package tracker turns the sparse, date-keyed records in a kv.Store into the
// figures the UI shows: done-today, streaks, week grids and reading progress.
//
// Trackers hold no cached state. Every query is recomputed from the store so
// that several processes writing the same store always agree.
package tracker

import (
	"time"

	"daya/internal/calendar"
	"daya/internal/kv"
	"daya/internal/metrics"
)

// maxScanDays bounds every backward scan.
const maxScanDays = 100 * 366

// Record is the tri-state answer for one habit on one day.
type Record int

const (
	// Unanswered is the absence of a stored value. It is never written.
	Unanswered Record = iota
	Done
	NotDone
)

func (r Record) String() string {
	switch r {
	case Done:
		return "done"
	case NotDone:
		return "not_done"
	default:
		return "unanswered"
	}
}

// Day is one cell of a binary habit's week window.
type Day struct {
	Date   time.Time
	Label  string
	Record Record
}

// Binary tracks a yes/no daily habit stored under "<prefix>_<YYYY-MM-DD>".
type Binary struct {
	store  kv.Accessor
	cal    calendar.Calendar
	prefix string
}

// NewBinary returns a tracker for the habit namespaced by prefix.
func NewBinary(store kv.Store, cal calendar.Calendar, prefix string) *Binary {
	return &Binary{store: kv.Access(store), cal: cal, prefix: prefix}
}

// Prefix returns the habit's key namespace.
func (b *Binary) Prefix() string {
	return b.prefix
}

// KeyPrefix returns the prefix shared by every record of this habit.
func (b *Binary) KeyPrefix() string {
	return b.prefix + "_"
}

func (b *Binary) key(date time.Time) string {
	return b.KeyPrefix() + b.cal.Key(date)
}

// Mark records Done or NotDone for date, overwriting any earlier answer.
func (b *Binary) Mark(date time.Time, completed bool) {
	b.store.Set(b.key(date), kv.Bool(completed))
	if completed {
		metrics.HabitMarks.WithLabelValues("done").Inc()
	} else {
		metrics.HabitMarks.WithLabelValues("not_done").Inc()
	}
}

// MarkToday is Mark for the current day.
func (b *Binary) MarkToday(completed bool) {
	b.Mark(b.cal.Today(), completed)
}

// Clear reverts date to Unanswered. Clearing twice is the same as clearing once.
func (b *Binary) Clear(date time.Time) {
	b.store.Remove(b.key(date))
	metrics.HabitMarks.WithLabelValues("cleared").Inc()
}

// ClearToday is Clear for the current day.
func (b *Binary) ClearToday() {
	b.Clear(b.cal.Today())
}

// Record returns the tri-state answer for date.
func (b *Binary) Record(date time.Time) Record {
	done, ok := b.store.Bool(b.key(date))
	switch {
	case !ok:
		return Unanswered
	case done:
		return Done
	default:
		return NotDone
	}
}

// IsDone collapses the tri-state: only Done is true.
func (b *Binary) IsDone(date time.Time) bool {
	return b.Record(date) == Done
}

// AnsweredToday reports whether today has any stored answer.
func (b *Binary) AnsweredToday() bool {
	return b.Record(b.cal.Today()) != Unanswered
}

// CompletedToday reports whether today is Done.
func (b *Binary) CompletedToday() bool {
	return b.IsDone(b.cal.Today())
}

// Streak counts consecutive Done days ending today.
func (b *Binary) Streak() int {
	return b.StreakFrom(b.cal.Today())
}

// StreakFrom counts consecutive Done days ending at from, scanning backward
// and stopping at the first day that is not Done.
func (b *Binary) StreakFrom(from time.Time) int {
	return streak(b.cal, from, b.IsDone)
}

// WeekWindow returns the Sunday-anchored week containing ref, oldest first.
// A zero ref means today.
func (b *Binary) WeekWindow(ref time.Time) [7]Day {
	if ref.IsZero() {
		ref = b.cal.Today()
	}

	var week [7]Day
	start := b.cal.WeekStart(ref)
	for i := range week {
		date := b.cal.AddDays(start, i)
		week[i] = Day{Date: date, Label: b.cal.Label(date), Record: b.Record(date)}
	}
	return week
}

func streak(cal calendar.Calendar, from time.Time, done func(time.Time) bool) int {
	n := 0
	date := cal.Day(from)
	for n < maxScanDays && done(date) {
		n++
		date = cal.AddDays(date, -1)
	}
	return n
}
