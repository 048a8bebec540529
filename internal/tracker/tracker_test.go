package tracker

import (
	"testing"
	"time"

	"daya/internal/calendar"
	"daya/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-05-01 is a Wednesday.
var day0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func calAt(now time.Time) calendar.Calendar {
	return calendar.Fixed(time.UTC, now)
}

func TestBinaryMarkAndClear(t *testing.T) {
	store := kv.NewMemory()
	simran := NewBinary(store, calAt(day0), "simran")

	assert.Equal(t, Unanswered, simran.Record(day0))
	assert.False(t, simran.AnsweredToday())

	simran.Mark(day0, true)
	assert.True(t, simran.IsDone(day0))
	assert.True(t, simran.AnsweredToday())
	assert.True(t, simran.CompletedToday())

	// Another instant on the same local day addresses the same record.
	assert.True(t, simran.IsDone(time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)))

	simran.Clear(day0)
	assert.False(t, simran.IsDone(day0))
	assert.Equal(t, Unanswered, simran.Record(day0))

	simran.Clear(day0)
	assert.Equal(t, Unanswered, simran.Record(day0))
	assert.Equal(t, 0, store.Len())
}

func TestBinaryNotDoneIsNotDone(t *testing.T) {
	simran := NewBinary(kv.NewMemory(), calAt(day0), "simran")

	simran.MarkToday(false)
	assert.Equal(t, NotDone, simran.Record(day0))
	assert.False(t, simran.IsDone(day0))
	assert.True(t, simran.AnsweredToday())
	assert.False(t, simran.CompletedToday())

	simran.ClearToday()
	assert.False(t, simran.AnsweredToday())
}

func TestBinaryUsesPrefixedKeys(t *testing.T) {
	store := kv.NewMemory()
	NewBinary(store, calAt(day0), "morning_simran").Mark(day0, true)

	v, err := store.Get("morning_simran_2024-05-01")
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestBinaryStreak(t *testing.T) {
	store := kv.NewMemory()
	today := dayN(5)
	simran := NewBinary(store, calAt(today), "simran")

	assert.Equal(t, 0, simran.Streak())

	// k = 3 done days ending today, then a NotDone day.
	simran.Mark(dayN(2), false)
	for i := 3; i <= 5; i++ {
		simran.Mark(dayN(i), true)
	}
	simran.Mark(dayN(1), true)
	assert.Equal(t, 3, simran.Streak())

	// An unanswered today breaks the streak even with yesterday done.
	simran.Clear(today)
	assert.Equal(t, 0, simran.Streak())
	assert.Equal(t, 2, simran.StreakFrom(dayN(4)))
}

func TestBinaryWeekWindow(t *testing.T) {
	simran := NewBinary(kv.NewMemory(), calAt(day0), "simran")
	simran.Mark(time.Date(2024, 4, 28, 7, 0, 0, 0, time.UTC), true)
	simran.Mark(time.Date(2024, 4, 30, 7, 0, 0, 0, time.UTC), false)

	week := simran.WeekWindow(time.Time{})

	labels := make([]string, 0, 7)
	for _, d := range week {
		labels = append(labels, d.Label)
	}
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, labels)
	assert.Equal(t, "2024-04-28", week[0].Date.Format(calendar.KeyLayout))
	assert.Equal(t, Done, week[0].Record)
	assert.Equal(t, Unanswered, week[1].Record)
	assert.Equal(t, NotDone, week[2].Record)

	// An explicit reference date picks that date's week.
	next := simran.WeekWindow(dayN(7))
	assert.Equal(t, "2024-05-05", next[0].Date.Format(calendar.KeyLayout))
}

func TestBinaryUnavailableStoreDefaults(t *testing.T) {
	simran := NewBinary(kv.Unavailable{}, calAt(day0), "simran")

	simran.MarkToday(true)
	assert.False(t, simran.CompletedToday())
	assert.Equal(t, 0, simran.Streak())
	assert.Equal(t, Unanswered, simran.WeekWindow(day0)[3].Record)
}

func TestCumulativeInitIsSetOnce(t *testing.T) {
	store := kv.NewMemory()

	first := NewCumulative(store, calAt(day0), 0)
	assert.Equal(t, DefaultTargetTotal, first.TargetTotal())
	start := first.Init()
	assert.Equal(t, "2024-05-01", start.Format(calendar.KeyLayout))

	later := NewCumulative(store, calAt(dayN(3)), 0)
	assert.Equal(t, start, later.Init())
}

func TestCumulativeRejectsNegativeDelta(t *testing.T) {
	store := kv.NewMemory()
	paath := NewCumulative(store, calAt(day0), 1430)
	paath.Init()

	err := paath.SetDailyDelta(day0, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, paath.DailyDelta(day0))
	assert.False(t, paath.DidComplete(day0))
}

func TestCumulativeSetOverwrites(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 1430)
	paath.Init()

	require.NoError(t, paath.SetToday(4))
	require.NoError(t, paath.SetToday(7))
	assert.Equal(t, 7, paath.AngsToday())
	assert.Equal(t, 7, paath.Total())
}

func TestCumulativeSingleDayTotal(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(dayN(10)), 1430)
	paath.Init()

	require.NoError(t, paath.SetDailyDelta(dayN(10), 25))
	assert.Equal(t, 25, paath.Total())
	assert.InDelta(t, 100*25.0/1430.0, paath.PercentComplete(), 1e-9)
}

func TestCumulativeTotalWindow(t *testing.T) {
	store := kv.NewMemory()
	NewCumulative(store, calAt(dayN(2)), 1430).Init()

	paath := NewCumulative(store, calAt(dayN(6)), 1430)
	require.NoError(t, paath.SetDailyDelta(dayN(1), 100)) // before start
	require.NoError(t, paath.SetDailyDelta(dayN(2), 3))
	require.NoError(t, paath.SetDailyDelta(dayN(4), 5))
	require.NoError(t, paath.SetDailyDelta(dayN(9), 50)) // after today

	assert.Equal(t, 8, paath.Total())
	assert.Equal(t, 3, paath.TotalToDate(dayN(3)))
	assert.Equal(t, 0, paath.TotalToDate(dayN(1)))
}

func TestCumulativeProjectionScenario(t *testing.T) {
	store := kv.NewMemory()
	NewCumulative(store, calAt(day0), 1430).Init()

	paath := NewCumulative(store, calAt(dayN(1)), 1430)
	require.NoError(t, paath.SetDailyDelta(dayN(0), 10))
	require.NoError(t, paath.SetDailyDelta(dayN(1), 10))

	assert.Equal(t, 20, paath.TotalToDate(dayN(1)))
	assert.Equal(t, 2, paath.DaysSinceStart())
	assert.InDelta(t, 10.0, paath.DailyAverage(), 1e-9)

	finish, ok := paath.EstimatedCompletionDate()
	require.True(t, ok)
	assert.Equal(t, calAt(day0).AddDays(dayN(1), 141), finish)

	p := paath.Progress()
	assert.Equal(t, 20, p.Total)
	assert.Equal(t, 1410, p.Remaining)
	assert.Equal(t, finish, p.EstimatedFinish)
	assert.False(t, p.HasRequiredPace)
}

func TestCumulativeNoEstimateWithoutReading(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 1430)
	paath.Init()

	_, ok := paath.EstimatedCompletionDate()
	assert.False(t, ok)
	assert.Zero(t, paath.DailyAverage())
}

func TestCumulativeRequiredPace(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 1430)
	paath.Init()
	require.NoError(t, paath.SetToday(30))

	_, ok := paath.RequiredDailyPace()
	assert.False(t, ok)

	target := dayN(10)
	paath.SetTargetDate(&target)
	pace, ok := paath.RequiredDailyPace()
	require.True(t, ok)
	assert.InDelta(t, 140.0, pace, 1e-9)

	// A target in the past divides by one day, not by zero or a negative count.
	past := dayN(-3)
	paath.SetTargetDate(&past)
	pace, ok = paath.RequiredDailyPace()
	require.True(t, ok)
	assert.InDelta(t, 1400.0, pace, 1e-9)

	paath.SetTargetDate(nil)
	_, ok = paath.TargetDate()
	assert.False(t, ok)
}

// Past the target total the pace is left negative rather than clamped, and
// the snapshot reports the reader as ahead of schedule.
func TestCumulativePaceGoesNegativePastTarget(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 10)
	paath.Init()
	require.NoError(t, paath.SetToday(15))

	target := dayN(5)
	paath.SetTargetDate(&target)

	p := paath.Progress()
	require.True(t, p.HasRequiredPace)
	assert.InDelta(t, -1.0, p.RequiredDailyPace, 1e-9)
	assert.True(t, p.AheadOfSchedule)
	assert.InDelta(t, 150.0, p.Percent, 1e-9)

	// ceil(-5/15) rounds up to zero days
	finish, ok := paath.EstimatedCompletionDate()
	require.True(t, ok)
	assert.Equal(t, calAt(day0).Today(), finish)
}

// The estimate is not clamped to today: a reader well past the target total
// gets a date in the past.
func TestCumulativeEstimateBeforeTodayPastTarget(t *testing.T) {
	store := kv.NewMemory()
	NewCumulative(store, calAt(day0), 100).Init()

	paath := NewCumulative(store, calAt(dayN(1)), 100)
	require.NoError(t, paath.SetDailyDelta(dayN(0), 100))
	require.NoError(t, paath.SetDailyDelta(dayN(1), 100))
	require.InDelta(t, 100.0, paath.DailyAverage(), 1e-9)

	finish, ok := paath.EstimatedCompletionDate()
	require.True(t, ok)
	assert.Equal(t, calAt(day0).Today(), finish)
	assert.Equal(t, finish, paath.Progress().EstimatedFinish)
}

// The completion flag is sticky: editing a day's angs back to zero keeps it
// raised, while the week window (delta based) drops the day.
func TestCompletionFlagSurvivesEditToZero(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 1430)
	paath.Init()

	require.NoError(t, paath.SetDailyDelta(day0, 5))
	require.NoError(t, paath.SetDailyDelta(day0, 0))

	assert.True(t, paath.DidComplete(day0))
	assert.Equal(t, 0, paath.DailyDelta(day0))
	assert.Equal(t, 1, paath.Streak())
	assert.False(t, paath.WeekWindow(day0)[3].Completed)
}

func TestCumulativeWeekWindow(t *testing.T) {
	paath := NewCumulative(kv.NewMemory(), calAt(day0), 1430)
	paath.Init()
	require.NoError(t, paath.SetDailyDelta(day0, 12))

	week := paath.WeekWindow(time.Time{})
	assert.Equal(t, "Sun", week[0].Label)
	assert.Equal(t, "Wed", week[3].Label)
	assert.Equal(t, 12, week[3].Angs)
	assert.True(t, week[3].Completed)
	assert.False(t, week[4].Completed)
}

func TestCombinedStreakScenario(t *testing.T) {
	store := kv.NewMemory()
	cal := calAt(dayN(3))
	a := NewBinary(store, cal, "a")
	b := NewBinary(store, cal, "b")

	for i := 0; i <= 2; i++ {
		a.Mark(dayN(i), true)
		b.Mark(dayN(i), true)
	}
	a.Mark(dayN(3), false)
	b.Mark(dayN(3), true)

	both := NewCombined(cal, a, b)
	assert.Equal(t, 0, both.StreakFrom(dayN(3)))
	assert.Equal(t, 3, both.StreakFrom(dayN(2)))
	assert.Equal(t, 0, both.Streak())
}

func TestCumulativeCombinedStreak(t *testing.T) {
	store := kv.NewMemory()
	cal := calAt(dayN(2))
	simran := NewBinary(store, cal, "simran")
	paath := NewCumulative(store, cal, 1430)
	paath.Init()

	for i := 0; i <= 2; i++ {
		simran.Mark(dayN(i), true)
		require.NoError(t, paath.SetDailyDelta(dayN(i), 2))
	}
	assert.Equal(t, 3, paath.CombinedStreak(simran))

	simran.Mark(dayN(1), false)
	assert.Equal(t, 1, paath.CombinedStreak(simran))
}

func TestCombinedDayStatus(t *testing.T) {
	store := kv.NewMemory()
	cal := calAt(day0)
	a := NewBinary(store, cal, "a")
	b := NewBinary(store, cal, "b")

	both := NewCombined(cal, a, b)
	assert.Equal(t, StatusNone, both.Status(day0))
	assert.False(t, both.AnyDone(day0))

	a.Mark(day0, true)
	assert.Equal(t, StatusSome, both.Status(day0))
	assert.True(t, both.AnyDone(day0))
	assert.False(t, both.AllDone(day0))

	b.Mark(day0, true)
	assert.Equal(t, StatusAll, both.Status(day0))
	assert.True(t, both.AllDone(day0))

	assert.False(t, NewCombined(cal).AllDone(day0))
}

func TestCombinedWindows(t *testing.T) {
	cal := calAt(day0)
	always := PredicateFunc(func(d time.Time) bool { return d.Weekday() != time.Monday })

	rolling := NewCombined(cal, always).RollingWeek()
	assert.Equal(t, "2024-05-01", rolling[6].Date.Format(calendar.KeyLayout))
	assert.Equal(t, "2024-04-25", rolling[0].Date.Format(calendar.KeyLayout))
	assert.True(t, rolling[5].AllDone)  // 2024-04-30 is a Tuesday
	assert.False(t, rolling[4].AllDone) // 2024-04-29 is a Monday

	week := NewCombined(cal, always).WeekProgress(time.Time{})
	assert.Equal(t, [7]bool{true, false, true, true, true, true, true}, week)
}
