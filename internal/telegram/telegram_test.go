package telegram

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/services"
	"daya/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-05-01 is a Wednesday.
var testCal = calendar.Fixed(time.UTC, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

func day(offset int) time.Time {
	return time.Date(2024, 5, 1+offset, 0, 0, 0, 0, time.UTC)
}

func TestSplitCommand(t *testing.T) {
	cmd, args := splitCommand("/Done@daya_bot Morning  Simran")
	assert.Equal(t, "/done", cmd)
	assert.Equal(t, []string{"Morning", "Simran"}, args)

	cmd, args = splitCommand("   ")
	assert.Empty(t, cmd)
	assert.Empty(t, args)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", day(0)},
		{"today", day(0)},
		{"Yesterday", day(-1)},
		{"-3", day(-3)},
		{"2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDate(testCal, tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"-", "-x", "2024-13-01", "simran"} {
		_, err := parseDate(testCal, bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClearArgs(t *testing.T) {
	ref, date, err := parseClearArgs(testCal, nil)
	require.NoError(t, err)
	assert.Equal(t, habits.MorningSimran, ref)
	assert.Equal(t, day(0), date)

	ref, date, err = parseClearArgs(testCal, []string{"yesterday"})
	require.NoError(t, err)
	assert.Equal(t, habits.MorningSimran, ref)
	assert.Equal(t, day(-1), date)

	ref, date, err = parseClearArgs(testCal, []string{"Morning", "Simran", "2024-04-20"})
	require.NoError(t, err)
	assert.Equal(t, "Morning Simran", ref)
	assert.Equal(t, day(-11), date)
}

func TestParseMarkArgs(t *testing.T) {
	ref, date, done, err := parseMarkArgs(testCal, []string{"Morning", "Simran", "-1", "yes"})
	require.NoError(t, err)
	assert.Equal(t, "Morning Simran", ref)
	assert.Equal(t, day(-1), date)
	assert.True(t, done)

	_, _, done, err = parseMarkArgs(testCal, []string{"walk", "today", "no"})
	require.NoError(t, err)
	assert.False(t, done)

	_, _, _, err = parseMarkArgs(testCal, []string{"walk", "today", "maybe"})
	assert.ErrorIs(t, err, errUsage)
	_, _, _, err = parseMarkArgs(testCal, []string{"walk", "soon", "yes"})
	assert.ErrorIs(t, err, errUsage)
	_, _, _, err = parseMarkArgs(testCal, []string{"today", "yes"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseAngsArgs(t *testing.T) {
	n, date, err := parseAngsArgs(testCal, []string{"12"})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, day(0), date)

	n, date, err = parseAngsArgs(testCal, []string{"0", "yesterday"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, day(-1), date)

	// negative counts parse; the tracker rejects them
	n, _, err = parseAngsArgs(testCal, []string{"-2"})
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	for _, bad := range [][]string{nil, {"x"}, {"1", "nope"}, {"1", "2", "3"}} {
		_, _, err := parseAngsArgs(testCal, bad)
		assert.ErrorIs(t, err, errUsage)
	}
}

func TestParseTargetArgs(t *testing.T) {
	date, err := parseTargetArgs(testCal, []string{"2024-12-31"})
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), *date)

	date, err = parseTargetArgs(testCal, []string{"CLEAR"})
	require.NoError(t, err)
	assert.Nil(t, date)

	_, err = parseTargetArgs(testCal, []string{"tomorrow"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseMonthArgs(t *testing.T) {
	month, err := parseMonthArgs(testCal, nil)
	require.NoError(t, err)
	assert.Equal(t, day(0), month)

	month, err = parseMonthArgs(testCal, []string{"2024-02"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), month)

	_, err = parseMonthArgs(testCal, []string{"Feb"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseMoveArgs(t *testing.T) {
	from, to, err := parseMoveArgs([]string{"3", "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, from)
	assert.Equal(t, 0, to)

	_, _, err = parseMoveArgs([]string{"0", "1"})
	assert.ErrorIs(t, err, errUsage)
	_, _, err = parseMoveArgs([]string{"1"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseAddHabitArgs(t *testing.T) {
	name, emoji, err := parseAddHabitArgs([]string{"Evening", "Rehras", "🌙"})
	require.NoError(t, err)
	assert.Equal(t, "Evening Rehras", name)
	assert.Equal(t, "🌙", emoji)

	name, emoji, err = parseAddHabitArgs([]string{"Walk", "5k"})
	require.NoError(t, err)
	assert.Equal(t, "Walk 5k", name)
	assert.Empty(t, emoji)

	name, emoji, err = parseAddHabitArgs([]string{"🌙"})
	require.NoError(t, err)
	assert.Equal(t, "🌙", name)
	assert.Empty(t, emoji)

	_, _, err = parseAddHabitArgs(nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseReminderArgs(t *testing.T) {
	enabled, times, err := parseReminderArgs([]string{"on", "06:00", "21:30"})
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, []services.Clock{{Hour: 6}, {Hour: 21, Minute: 30}}, times)

	enabled, times, err = parseReminderArgs([]string{"off"})
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Empty(t, times)

	_, _, err = parseReminderArgs([]string{"on", "25:00"})
	assert.ErrorIs(t, err, services.ErrInvalidSetting)
	_, _, err = parseReminderArgs([]string{"sometimes"})
	assert.ErrorIs(t, err, errUsage)
	_, _, err = parseReminderArgs([]string{"on", "01:00", "02:00", "03:00", "04:00"})
	assert.ErrorIs(t, err, errUsage)
}

func TestParseCallback(t *testing.T) {
	id, done, ok := parseCallback("done_morning_simran")
	assert.True(t, ok)
	assert.True(t, done)
	assert.Equal(t, habits.MorningSimran, id)

	id, done, ok = parseCallback("notdone_abc")
	assert.True(t, ok)
	assert.False(t, done)
	assert.Equal(t, "abc", id)

	_, _, ok = parseCallback("complete_1")
	assert.False(t, ok)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "❌ Usage: /move &lt;from&gt; &lt;to&gt;", errorText(usage("/move <from> <to>")))
	assert.Contains(t, errorText(fmt.Errorf("%w: x", habits.ErrNotFound)), "Unknown habit")
	assert.Contains(t, errorText(services.ErrNotBinary), "/angs")
	assert.Contains(t, errorText(tracker.ErrInvalidArgument), "zero or more")
	assert.Contains(t, errorText(fmt.Errorf("%w: locked", services.ErrSharedUnavailable)), "Nothing was erased")
}

func simran() habits.Habit { return habits.Defaults()[0] }
func paath() habits.Habit  { return habits.Defaults()[1] }

func TestReminderKeyboard(t *testing.T) {
	view := services.TodayView{Habits: []services.HabitStatus{
		{Habit: simran()},
		{Habit: paath(), Cumulative: true},
		{Habit: habits.Habit{ID: "walk", Name: "Walk"}, Done: true, Record: tracker.Done},
	}}

	keyboard, ok := reminderKeyboard(view)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 1)
	row := keyboard.InlineKeyboard[0]
	require.Len(t, row, 2)
	require.NotNil(t, row[0].CallbackData)
	assert.Equal(t, "done_morning_simran", *row[0].CallbackData)
	assert.Equal(t, "notdone_morning_simran", *row[1].CallbackData)

	view.Habits[0].Done = true
	_, ok = reminderKeyboard(view)
	assert.False(t, ok)
}

func TestFormatToday(t *testing.T) {
	view := services.TodayView{
		Date: day(0),
		Habits: []services.HabitStatus{
			{Habit: simran(), Record: tracker.Done, Done: true, Streak: 8},
			{Habit: paath(), Cumulative: true, Angs: 5, Done: true, Streak: 1},
			{Habit: habits.Habit{Name: "<b>x</b>"}, Record: tracker.NotDone},
		},
		CombinedStreak: 1,
		Progress:       tracker.Progress{Total: 143, TargetTotal: 1430, Percent: 10},
	}

	text := FormatToday(view, testCal.Now())
	assert.Contains(t, text, "Wed, 1 May 2024")
	assert.Contains(t, text, "✅ <b>🏆 Morning Simran</b>")
	assert.Contains(t, text, "streak: 8 days 🔥")
	assert.Contains(t, text, "5 angs today")
	assert.Contains(t, text, "❌ <b>&lt;b&gt;x&lt;/b&gt;</b>")
	assert.Contains(t, text, "Combined streak: 1 day ✨")
	assert.Contains(t, text, "143 / 1430 angs (10.0%)")
}

func TestFormatProgress(t *testing.T) {
	p := tracker.Progress{
		StartDate:       day(-9),
		TargetTotal:     1430,
		Total:           100,
		Remaining:       1330,
		Percent:         100.0 / 14.3,
		DaysSinceStart:  10,
		DailyAverage:    10,
		EstimatedFinish: day(133),
		HasEstimate:     true,
	}
	text := FormatProgress(p)
	assert.Contains(t, text, "Read: 100 / 1430 angs")
	assert.Contains(t, text, "Remaining: 1330 angs")
	assert.Contains(t, text, "Daily average: 10.0 angs")
	assert.Contains(t, text, "(day 10)")
	assert.NotContains(t, text, "Target date")

	p.HasTargetDate, p.TargetDate = true, day(30)
	p.HasRequiredPace, p.RequiredDailyPace = true, 44.33
	assert.Contains(t, FormatProgress(p), "Required pace: 44.3 angs/day")

	p.Remaining, p.AheadOfSchedule, p.HasEstimate = -5, true, false
	text = FormatProgress(p)
	assert.Contains(t, text, "Target reached")
	assert.Contains(t, text, "Ahead of schedule")
	assert.Contains(t, text, "read some angs first")
}

func TestFormatCalendar(t *testing.T) {
	var days []services.MonthDay
	for i := 0; i < 31; i++ {
		days = append(days, services.MonthDay{Date: day(i), Status: tracker.StatusNone})
	}
	days[0].Status = tracker.StatusAll
	days[0].Angs = 4
	days[1].Status = tracker.StatusSome

	text := FormatCalendar(day(0), days)
	assert.Contains(t, text, "May 2024")
	// May 2024 starts on a Wednesday: three blank cells first
	assert.Contains(t, text, "▫️▫️▫️🟢🟡⚪⚪\n")
	assert.Contains(t, text, "all done: 1 days")
	assert.Contains(t, text, "4 angs this month")
}

func TestFormatWeek(t *testing.T) {
	w := services.WeekView{
		Start:  day(-3),
		Labels: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		Rows: []services.WeekRow{
			{Habit: simran(), Days: [7]bool{true, true}},
		},
		Paath:    [7]tracker.ProgressDay{{Angs: 3}, {Angs: 4}},
		Combined: [7]bool{true},
	}
	text := FormatWeek(w)
	assert.Contains(t, text, "<code>Su Mo Tu We Th Fr Sa </code>")
	assert.Contains(t, text, "✅✅⬜⬜⬜⬜⬜ 🏆 Morning Simran")
	assert.Contains(t, text, "7 angs this week")
}

func TestFormatHabitsAndQuotes(t *testing.T) {
	list := append(habits.Defaults(), habits.Habit{ID: "x", Name: "Walk"})
	list[1].IsVisible = false

	text := FormatHabits(list)
	assert.Contains(t, text, "1. 👁 🏆 Morning Simran (built-in)")
	assert.Contains(t, text, "2. 🙈 📖 Sehaj Paath (built-in)")
	assert.Contains(t, text, "3. 🙈 Walk")

	assert.Contains(t, FormatQuotes(nil), "No quotes yet")
	assert.Contains(t, FormatQuotes([]string{"a & b"}), "1. <i>a &amp; b</i>")
}

func TestFormatReminders(t *testing.T) {
	rs := services.ReminderSettings{Enabled: true, Frequency: 2, Times: services.DefaultReminderTimes}
	qs := services.QuoteSettings{Enabled: true, Slots: map[string]bool{"night": true}}

	text := FormatReminders(rs, qs, 3)
	assert.Contains(t, text, "on at 09:00, 14:00")
	assert.Contains(t, text, "✅ night 19:30")
	assert.Contains(t, text, "⬜ morning 10:00")
	assert.Contains(t, text, "3 quotes in the bank")

	text = FormatReminders(services.ReminderSettings{}, services.QuoteSettings{}, 0)
	assert.Equal(t, 2, strings.Count(text, "off\n"))
}

func TestFormatLiveAndWidget(t *testing.T) {
	live := FormatLiveStatus(services.LiveStatus{SimranDone: true, Completed: 1, Total: 2, Active: true})
	assert.Contains(t, live, "Today 1/2")
	assert.Contains(t, live, "⬜ Paath: 0 angs")

	snap := services.Snapshot{SimranDone: true, PaathAngs: 2, Streak: 4, WeekProgress: [7]bool{true}, RefreshedAt: testCal.Now()}
	text := FormatWidget(snap)
	assert.Contains(t, text, "(10:00)")
	assert.Contains(t, text, "🔥 4")
	assert.Contains(t, text, "✅⬜⬜⬜⬜⬜⬜")
}
