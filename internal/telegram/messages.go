package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"daya/internal/habits"
	"daya/internal/services"
	"daya/internal/tracker"
	"daya/internal/utils"
)

const helpText = `🙏 <b>Daya - daily practice tracker</b>

<b>Today</b>
/today - status of every habit
/done [habit] - mark done (default Morning Simran)
/notdone [habit] - mark not done
/clear [habit] [date] - remove an answer
/mark &lt;habit&gt; &lt;date&gt; yes|no - answer for another day
/angs &lt;n&gt; [date] - angs read

<b>Progress</b>
/progress - Sehaj Paath progress
/target &lt;YYYY-MM-DD&gt;|clear - finish-by date
/week - this week
/calendar [YYYY-MM] - month view
/widget - widget snapshot
/stats - weekly analytics

<b>Habits</b>
/habits - list
/addhabit &lt;name&gt; [emoji] - add
/hide &lt;habit&gt; - show or hide
/delhabit &lt;habit&gt; - delete
/move &lt;from&gt; &lt;to&gt; - reorder

<b>Notifications</b>
/reminders on|off [HH:MM ...]
/quotes [on|off|morning|afternoon|night on|off]
/quote &lt;text&gt; - add to quote bank
/unquote &lt;n&gt; - remove a quote

/reset confirm - erase all records
/help - this message

Dates: today, yesterday, -N or YYYY-MM-DD`

func escape(s string) string {
	return html.EscapeString(s)
}

func habitTitle(h habits.Habit) string {
	return escape(h.Title())
}

func formatStreak(days int) string {
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s %s", days, unit, utils.StreakEmoji(days)))
}

// FormatToday renders the today screen.
func FormatToday(view services.TodayView, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 <b>%s</b>\n%s\n\n", utils.FormatDate(view.Date), utils.TimezoneInfo(now))

	if len(view.Habits) == 0 {
		b.WriteString("📭 No visible habits. Use /habits\n")
	}
	for _, h := range view.Habits {
		if h.Cumulative {
			fmt.Fprintf(&b, "%s <b>%s</b> - %d angs today\n", utils.DoneEmoji(h.Angs > 0), habitTitle(h.Habit), h.Angs)
		} else {
			fmt.Fprintf(&b, "%s <b>%s</b>\n", utils.RecordEmoji(h.Record), habitTitle(h.Habit))
		}
		fmt.Fprintf(&b, "   streak: %s\n", formatStreak(h.Streak))
	}

	fmt.Fprintf(&b, "\n🔗 Combined streak: %s\n", formatStreak(view.CombinedStreak))
	fmt.Fprintf(&b, "📖 %d / %d angs (%.1f%%)", view.Progress.Total, view.Progress.TargetTotal, view.Progress.Percent)
	return b.String()
}

// FormatProgress renders the reading habit's derived figures.
func FormatProgress(p tracker.Progress) string {
	var b strings.Builder
	b.WriteString("📖 <b>Sehaj Paath progress</b>\n\n")
	fmt.Fprintf(&b, "%s %.1f%%\n", utils.ProgressBar(p.Percent, 20), p.Percent)
	fmt.Fprintf(&b, "Read: %d / %d angs\n", p.Total, p.TargetTotal)
	if p.Remaining > 0 {
		fmt.Fprintf(&b, "Remaining: %d angs\n", p.Remaining)
	} else {
		b.WriteString("🎉 Target reached!\n")
	}
	fmt.Fprintf(&b, "Today: %d angs\n", p.AngsToday)
	fmt.Fprintf(&b, "Started: %s (day %d)\n", utils.FormatDate(p.StartDate), p.DaysSinceStart)
	fmt.Fprintf(&b, "Daily average: %.1f angs\n", p.DailyAverage)

	if p.HasEstimate {
		fmt.Fprintf(&b, "Estimated finish: %s\n", utils.FormatDate(p.EstimatedFinish))
	} else {
		b.WriteString("Estimated finish: read some angs first\n")
	}

	if p.HasTargetDate {
		fmt.Fprintf(&b, "\n🎯 Target date: %s\n", utils.FormatDate(p.TargetDate))
		if p.AheadOfSchedule {
			b.WriteString("✅ Ahead of schedule\n")
		} else if p.HasRequiredPace {
			fmt.Fprintf(&b, "Required pace: %.1f angs/day\n", p.RequiredDailyPace)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWeek renders the Sunday-anchored week grid.
func FormatWeek(w services.WeekView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 <b>Week of %s</b>\n\n<code>", utils.FormatDate(w.Start))
	for _, label := range w.Labels {
		fmt.Fprintf(&b, "%-3.2s", label)
	}
	b.WriteString("</code>\n")

	for _, row := range w.Rows {
		for _, done := range row.Days {
			b.WriteString(utils.DoneEmoji(done))
		}
		fmt.Fprintf(&b, " %s\n", habitTitle(row.Habit))
	}

	angs := 0
	for _, d := range w.Paath {
		angs += d.Angs
	}
	b.WriteString("\n")
	for _, done := range w.Combined {
		b.WriteString(utils.DoneEmoji(done))
	}
	fmt.Fprintf(&b, " both practices\n📖 %d angs this week", angs)
	return b.String()
}

// FormatCalendar renders a month of combined day dots, Sunday first.
func FormatCalendar(month time.Time, days []services.MonthDay) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📆 <b>%s</b>\n\n<code>Su Mo Tu We Th Fr Sa</code>\n", month.Format("January 2006"))
	if len(days) == 0 {
		return b.String()
	}

	col := int(days[0].Date.Weekday())
	b.WriteString(strings.Repeat("▫️", col))
	for _, d := range days {
		b.WriteString(utils.StatusEmoji(d.Status))
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	all, angs := 0, 0
	for _, d := range days {
		if d.Status == tracker.StatusAll {
			all++
		}
		angs += d.Angs
	}
	fmt.Fprintf(&b, "\n🟢 all done: %d days\n📖 %d angs this month", all, angs)
	return b.String()
}

// FormatWidget renders the widget snapshot.
func FormatWidget(s services.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📱 <b>Widget</b> (%s)\n\n", s.RefreshedAt.Format("15:04"))
	fmt.Fprintf(&b, "%s Simran\n", utils.DoneEmoji(s.SimranDone))
	fmt.Fprintf(&b, "%s Paath: %d angs\n", utils.DoneEmoji(s.PaathAngs > 0), s.PaathAngs)
	fmt.Fprintf(&b, "🔥 %d\n", s.Streak)
	for _, done := range s.WeekProgress {
		b.WriteString(utils.DoneEmoji(done))
	}
	return b.String()
}

// FormatLiveStatus renders the live progress line.
func FormatLiveStatus(s services.LiveStatus) string {
	return fmt.Sprintf("⏳ <b>Today %d/%d</b>\n%s Simran\n%s Paath: %d angs",
		s.Completed, s.Total, utils.DoneEmoji(s.SimranDone), utils.DoneEmoji(s.PaathAngs > 0), s.PaathAngs)
}

// FormatHabits renders the habit list with 1-based positions for /move.
func FormatHabits(list []habits.Habit) string {
	var b strings.Builder
	b.WriteString("📋 <b>Habits</b>\n\n")
	for i, h := range list {
		visibility := "👁"
		if !h.IsVisible {
			visibility = "🙈"
		}
		kind := ""
		if h.IsSystem {
			kind = " (built-in)"
		}
		fmt.Fprintf(&b, "%d. %s %s%s\n", i+1, visibility, habitTitle(h), kind)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAnalytics renders the weekly analytics.
func FormatAnalytics(wa services.WeeklyAnalytics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Week %s - %s</b>\n\n", wa.Start.Format("2 Jan"), wa.End.Format("2 Jan"))
	for _, s := range wa.Habits {
		fmt.Fprintf(&b, "%s: %d/%d (%.0f%%)\n", habitTitle(s.Habit), s.Done, s.Days, s.Rate())
	}
	fmt.Fprintf(&b, "\nOverall: %d/%d (%.0f%%)\n", wa.TotalDone, wa.TotalPossible, wa.CompletionRate)
	fmt.Fprintf(&b, "📖 %d angs\n\n", wa.PaathAngs)
	b.WriteString(strings.Join(wa.Insights, "\n"))
	return b.String()
}

// FormatReminders renders reminder and quote settings.
func FormatReminders(rs services.ReminderSettings, qs services.QuoteSettings, quotes int) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Reminders</b>\n")
	if rs.Enabled {
		times := make([]string, 0, len(rs.Active()))
		for _, c := range rs.Active() {
			times = append(times, c.String())
		}
		fmt.Fprintf(&b, "on at %s\n", strings.Join(times, ", "))
	} else {
		b.WriteString("off\n")
	}

	b.WriteString("\n💭 <b>Quotes</b>\n")
	if qs.Enabled {
		for _, slot := range services.QuoteSlots {
			fmt.Fprintf(&b, "%s %s %s\n", utils.DoneEmoji(qs.Slots[slot.Name]), slot.Name, slot.Clock)
		}
	} else {
		b.WriteString("off\n")
	}
	fmt.Fprintf(&b, "%d quotes in the bank", quotes)
	return b.String()
}

// FormatQuotes renders the quote bank with 1-based numbers for /unquote.
func FormatQuotes(quotes []string) string {
	if len(quotes) == 0 {
		return "💭 No quotes yet. Add one with /quote &lt;text&gt;"
	}
	var b strings.Builder
	b.WriteString("💭 <b>Quote bank</b>\n\n")
	for i, q := range quotes {
		fmt.Fprintf(&b, "%d. <i>%s</i>\n", i+1, escape(q))
	}
	return strings.TrimRight(b.String(), "\n")
}
