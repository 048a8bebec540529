package tracker

import (
	"errors"
	"fmt"
	"math"
	"time"

	"daya/internal/calendar"
	"daya/internal/kv"
	"daya/internal/metrics"
)

// ErrInvalidArgument is returned for input the tracker refuses to store.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	AngsPrefix      = "paath_angs_"
	CompletedPrefix = "paath_completed_"
	StartDateKey    = "paath_start_date"
	TargetDateKey   = "paath_target_date"

	// DefaultTargetTotal is the number of angs in a complete Sehaj Paath.
	DefaultTargetTotal = 1430
)

// ProgressDay is one cell of the reading habit's week window.
type ProgressDay struct {
	Date      time.Time
	Label     string
	Angs      int
	Completed bool
}

// Progress is a point-in-time snapshot of the reading figures.
type Progress struct {
	StartDate      time.Time
	Today          time.Time
	TargetTotal    int
	Total          int
	Remaining      int
	AngsToday      int
	Percent        float64
	DaysSinceStart int
	DailyAverage   float64

	EstimatedFinish   time.Time
	HasEstimate       bool
	TargetDate        time.Time
	HasTargetDate     bool
	RequiredDailyPace float64
	HasRequiredPace   bool
	AheadOfSchedule   bool
}

// Cumulative tracks the reading habit: a per-day count of angs read that day,
// summed from a fixed start date towards a fixed target total.
type Cumulative struct {
	store  kv.Accessor
	cal    calendar.Calendar
	target int
}

// NewCumulative returns a reading tracker. A non-positive targetTotal falls
// back to DefaultTargetTotal. Call Init before first use.
func NewCumulative(store kv.Store, cal calendar.Calendar, targetTotal int) *Cumulative {
	if targetTotal <= 0 {
		targetTotal = DefaultTargetTotal
	}
	return &Cumulative{store: kv.Access(store), cal: cal, target: targetTotal}
}

// Init persists today as the start date unless one is already stored, and
// returns the effective start date.
func (c *Cumulative) Init() time.Time {
	if start, ok := c.StartDate(); ok {
		return start
	}
	now := c.cal.Now()
	c.store.Set(StartDateKey, kv.Time(now))
	return c.cal.Day(now)
}

// ResetStartDate overwrites the start date with today.
func (c *Cumulative) ResetStartDate() {
	c.store.Set(StartDateKey, kv.Time(c.cal.Now()))
}

// StartDate returns the local day reading started, if initialised.
func (c *Cumulative) StartDate() (time.Time, bool) {
	t, ok := c.store.Time(StartDateKey)
	if !ok {
		return time.Time{}, false
	}
	return c.cal.Day(t), true
}

// TargetTotal returns the configured total.
func (c *Cumulative) TargetTotal() int {
	return c.target
}

// SetDailyDelta stores count as the angs read on date, replacing any earlier
// value. A positive count also raises the day's completion flag.
func (c *Cumulative) SetDailyDelta(date time.Time, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: angs must be >= 0, got %d", ErrInvalidArgument, count)
	}

	key := c.cal.Key(date)
	c.store.Set(AngsPrefix+key, kv.Int(count))
	if count > 0 {
		c.store.Set(CompletedPrefix+key, kv.Bool(true))
		metrics.AngsRecorded.Add(float64(count))
	}
	return nil
}

// SetToday is SetDailyDelta for the current day.
func (c *Cumulative) SetToday(count int) error {
	return c.SetDailyDelta(c.cal.Today(), count)
}

// DailyDelta returns the angs stored for date, or 0.
func (c *Cumulative) DailyDelta(date time.Time) int {
	return c.store.Int(AngsPrefix + c.cal.Key(date))
}

// AngsToday returns today's delta.
func (c *Cumulative) AngsToday() int {
	return c.DailyDelta(c.cal.Today())
}

// TotalToDate sums every daily delta from the start date through asOf inclusive.
func (c *Cumulative) TotalToDate(asOf time.Time) int {
	start, ok := c.StartDate()
	if !ok {
		return 0
	}

	total := 0
	days := c.cal.DaysBetween(start, asOf)
	for i := 0; i <= days; i++ {
		total += c.DailyDelta(c.cal.AddDays(start, i))
	}
	return total
}

// Total is TotalToDate(today).
func (c *Cumulative) Total() int {
	return c.TotalToDate(c.cal.Today())
}

// PercentComplete is 100 * total / target. It is not clamped and exceeds 100
// once more than the target has been read.
func (c *Cumulative) PercentComplete() float64 {
	return c.percent(c.Total())
}

func (c *Cumulative) percent(total int) float64 {
	return 100 * float64(total) / float64(c.target)
}

// DaysSinceStart counts calendar days from the start date through today,
// inclusive, never less than 1.
func (c *Cumulative) DaysSinceStart() int {
	start, ok := c.StartDate()
	if !ok {
		return 1
	}
	return max(1, c.cal.DaysBetween(start, c.cal.Today())+1)
}

// DailyAverage is total / DaysSinceStart.
func (c *Cumulative) DailyAverage() float64 {
	return c.average(c.Total())
}

func (c *Cumulative) average(total int) float64 {
	return float64(total) / float64(c.DaysSinceStart())
}

// EstimatedCompletionDate projects the finish at the current daily average:
// today + ceil((target - total) / average). Past the target total the date
// lies in the past. It reports false while nothing has been read.
func (c *Cumulative) EstimatedCompletionDate() (time.Time, bool) {
	return c.estimate(c.Total())
}

func (c *Cumulative) estimate(total int) (time.Time, bool) {
	avg := c.average(total)
	if avg <= 0 {
		return time.Time{}, false
	}

	days := int(math.Ceil(float64(c.target-total) / avg))
	return c.cal.AddDays(c.cal.Today(), days), true
}

// SetTargetDate stores or, for nil, removes the target date.
func (c *Cumulative) SetTargetDate(date *time.Time) {
	if date == nil {
		c.store.Remove(TargetDateKey)
		return
	}
	c.store.Set(TargetDateKey, kv.Time(c.cal.Day(*date)))
}

// TargetDate returns the target date if one is set.
func (c *Cumulative) TargetDate() (time.Time, bool) {
	t, ok := c.store.Time(TargetDateKey)
	if !ok {
		return time.Time{}, false
	}
	return c.cal.Day(t), true
}

// RequiredDailyPace is the angs per day needed to finish by the target date.
// It reports false without a target date. The value goes negative once the
// total passes the target; Progress flags that as AheadOfSchedule.
func (c *Cumulative) RequiredDailyPace() (float64, bool) {
	return c.pace(c.Total())
}

func (c *Cumulative) pace(total int) (float64, bool) {
	target, ok := c.TargetDate()
	if !ok {
		return 0, false
	}
	days := max(1, c.cal.DaysBetween(c.cal.Today(), target))
	return float64(c.target-total) / float64(days), true
}

// DidComplete reads the completion flag for date. The flag is raised by any
// positive delta and is not lowered when that delta is later edited to 0.
func (c *Cumulative) DidComplete(date time.Time) bool {
	done, _ := c.store.Bool(CompletedPrefix + c.cal.Key(date))
	return done
}

// IsDone makes Cumulative a Predicate over its completion flag.
func (c *Cumulative) IsDone(date time.Time) bool {
	return c.DidComplete(date)
}

// Streak counts consecutive completed reading days ending today.
func (c *Cumulative) Streak() int {
	return c.StreakFrom(c.cal.Today())
}

// StreakFrom counts consecutive completed reading days ending on from.
func (c *Cumulative) StreakFrom(from time.Time) int {
	return streak(c.cal, from, c.DidComplete)
}

// CombinedStreak counts consecutive days ending today on which reading was
// completed and other was done.
func (c *Cumulative) CombinedStreak(other Predicate) int {
	return NewCombined(c.cal, c, other).Streak()
}

// WeekWindow returns the Sunday-anchored week containing ref. A day counts as
// completed when its delta is positive. A zero ref means today.
func (c *Cumulative) WeekWindow(ref time.Time) [7]ProgressDay {
	if ref.IsZero() {
		ref = c.cal.Today()
	}

	var week [7]ProgressDay
	start := c.cal.WeekStart(ref)
	for i := range week {
		date := c.cal.AddDays(start, i)
		angs := c.DailyDelta(date)
		week[i] = ProgressDay{Date: date, Label: c.cal.Label(date), Angs: angs, Completed: angs > 0}
	}
	return week
}

// Progress computes every derived figure from a single total.
func (c *Cumulative) Progress() Progress {
	total := c.Total()
	start, _ := c.StartDate()

	p := Progress{
		StartDate:      start,
		Today:          c.cal.Today(),
		TargetTotal:    c.target,
		Total:          total,
		Remaining:      c.target - total,
		AngsToday:      c.AngsToday(),
		Percent:        c.percent(total),
		DaysSinceStart: c.DaysSinceStart(),
		DailyAverage:   c.average(total),
	}
	p.EstimatedFinish, p.HasEstimate = c.estimate(total)
	p.TargetDate, p.HasTargetDate = c.TargetDate()
	p.RequiredDailyPace, p.HasRequiredPace = c.pace(total)
	p.AheadOfSchedule = p.HasRequiredPace && p.Remaining <= 0
	return p
}
