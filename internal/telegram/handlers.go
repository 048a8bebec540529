package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/services"
	"daya/internal/tracker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

// splitCommand separates "/cmd@bot a b" into "/cmd" and its fields.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd), fields[1:]
}

// parseDate accepts today, yesterday, -N or YYYY-MM-DD. Empty means today.
func parseDate(cal calendar.Calendar, s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return cal.Today(), nil
	case "yesterday":
		return cal.AddDays(cal.Today(), -1), nil
	}
	if strings.HasPrefix(s, "-") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("bad date %q", s)
		}
		return cal.AddDays(cal.Today(), -n), nil
	}
	return cal.ParseKey(s)
}

func isDate(cal calendar.Calendar, s string) bool {
	_, err := parseDate(cal, s)
	return err == nil && s != ""
}

// habitArg joins args into a habit reference, defaulting to Morning Simran.
func habitArg(args []string) string {
	if len(args) == 0 {
		return habits.MorningSimran
	}
	return strings.Join(args, " ")
}

// parseClearArgs reads "[habit...] [date]".
func parseClearArgs(cal calendar.Calendar, args []string) (string, time.Time, error) {
	if n := len(args); n > 0 && isDate(cal, args[n-1]) {
		date, err := parseDate(cal, args[n-1])
		return habitArg(args[:n-1]), date, err
	}
	return habitArg(args), cal.Today(), nil
}

// parseMarkArgs reads "<habit...> <date> yes|no".
func parseMarkArgs(cal calendar.Calendar, args []string) (string, time.Time, bool, error) {
	const format = "/mark <habit> <date> yes|no"
	if len(args) < 3 {
		return "", time.Time{}, false, usage(format)
	}

	n := len(args)
	var done bool
	switch strings.ToLower(args[n-1]) {
	case "yes", "y", "done":
		done = true
	case "no", "n", "notdone":
		done = false
	default:
		return "", time.Time{}, false, usage(format)
	}

	date, err := parseDate(cal, args[n-2])
	if err != nil {
		return "", time.Time{}, false, usage(format)
	}
	return strings.Join(args[:n-2], " "), date, done, nil
}

// parseAngsArgs reads "<n> [date]".
func parseAngsArgs(cal calendar.Calendar, args []string) (int, time.Time, error) {
	const format = "/angs <n> [date]"
	if len(args) < 1 || len(args) > 2 {
		return 0, time.Time{}, usage(format)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, time.Time{}, usage(format)
	}
	date := cal.Today()
	if len(args) == 2 {
		if date, err = parseDate(cal, args[1]); err != nil {
			return 0, time.Time{}, usage(format)
		}
	}
	return n, date, nil
}

// parseTargetArgs reads "<date>|clear"; a nil date clears the target.
func parseTargetArgs(cal calendar.Calendar, args []string) (*time.Time, error) {
	const format = "/target <YYYY-MM-DD>|clear"
	if len(args) != 1 {
		return nil, usage(format)
	}
	if strings.EqualFold(args[0], "clear") {
		return nil, nil
	}
	date, err := cal.ParseKey(args[0])
	if err != nil {
		return nil, usage(format)
	}
	return &date, nil
}

// parseMonthArgs reads "[YYYY-MM]".
func parseMonthArgs(cal calendar.Calendar, args []string) (time.Time, error) {
	if len(args) == 0 {
		return cal.MonthStart(cal.Today()), nil
	}
	month, err := time.ParseInLocation("2006-01", args[0], cal.Location())
	if err != nil {
		return time.Time{}, usage("/calendar [YYYY-MM]")
	}
	return month, nil
}

// parseMoveArgs reads 1-based "<from> <to>" and returns 0-based indexes.
func parseMoveArgs(args []string) (int, int, error) {
	const format = "/move <from> <to>"
	if len(args) != 2 {
		return 0, 0, usage(format)
	}
	from, errFrom := strconv.Atoi(args[0])
	to, errTo := strconv.Atoi(args[1])
	if errFrom != nil || errTo != nil || from < 1 || to < 1 {
		return 0, 0, usage(format)
	}
	return from - 1, to - 1, nil
}

// parseAddHabitArgs reads "<name...> [emoji]". A trailing token with no
// letters or digits is taken as the emoji.
func parseAddHabitArgs(args []string) (string, string, error) {
	if len(args) == 0 {
		return "", "", usage("/addhabit <name> [emoji]")
	}
	n := len(args)
	if n > 1 && !strings.ContainsAny(strings.ToLower(args[n-1]), "abcdefghijklmnopqrstuvwxyz0123456789") {
		return strings.Join(args[:n-1], " "), args[n-1], nil
	}
	return strings.Join(args, " "), "", nil
}

func parseOnOff(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "yes", "enable":
		return true, true
	case "off", "no", "disable":
		return false, true
	}
	return false, false
}

// parseReminderArgs reads "on|off [HH:MM ...]".
func parseReminderArgs(args []string) (bool, []services.Clock, error) {
	const format = "/reminders on|off [HH:MM ...]"
	if len(args) == 0 {
		return false, nil, usage(format)
	}
	enabled, ok := parseOnOff(args[0])
	if !ok {
		return false, nil, usage(format)
	}

	var times []services.Clock
	for _, s := range args[1:] {
		c, err := services.ParseClock(s)
		if err != nil {
			return false, nil, err
		}
		times = append(times, c)
	}
	if len(times) > services.MaxReminders {
		return false, nil, usage(format)
	}
	return enabled, times, nil
}

func (b *Bot) reply(err error, ok string) {
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}
	b.SendMessageOrLogError(ok)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return "❌ Usage: " + escape(strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
	case errors.Is(err, habits.ErrNotFound):
		return "❌ Unknown habit. See /habits"
	case errors.Is(err, services.ErrNotBinary):
		return "❌ Sehaj Paath is tracked in angs. Use /angs"
	case errors.Is(err, tracker.ErrInvalidArgument):
		return "❌ Angs must be zero or more"
	case errors.Is(err, services.ErrSharedUnavailable):
		return "❌ Reset stopped: the widget store is not reachable. Nothing was erased"
	default:
		return "❌ " + escape(err.Error())
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(helpText)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(helpText)
}

func (b *Bot) handleToday(msg *tgbotapi.Message) {
	cal := b.services.Progress.Calendar()
	b.SendMessageOrLogError(FormatToday(b.services.Progress.Today(), cal.Now()))
}

func (b *Bot) handleMark(done bool) func(*tgbotapi.Message) {
	return func(msg *tgbotapi.Message) {
		_, args := splitCommand(msg.Text)
		h, err := b.services.Progress.Mark(habitArg(args), b.services.Progress.Calendar().Today(), done)
		if err != nil {
			b.reply(err, "")
			return
		}
		b.SendMessageOrLogError(markedText(h, done))
	}
}

func markedText(h habits.Habit, done bool) string {
	if done {
		return fmt.Sprintf("✅ %s done. Waheguru!", habitTitle(h))
	}
	return fmt.Sprintf("❌ %s marked not done", habitTitle(h))
}

func (b *Bot) handleMarkDay(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	ref, date, done, err := parseMarkArgs(b.services.Progress.Calendar(), args)
	if err != nil {
		b.reply(err, "")
		return
	}
	h, err := b.services.Progress.Mark(ref, date, done)
	b.reply(err, fmt.Sprintf("%s (%s)", markedText(h, done), date.Format(calendar.KeyLayout)))
}

func (b *Bot) handleClear(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	ref, date, err := parseClearArgs(b.services.Progress.Calendar(), args)
	if err != nil {
		b.reply(err, "")
		return
	}
	h, err := b.services.Progress.Clear(ref, date)
	b.reply(err, fmt.Sprintf("🧹 %s cleared for %s", habitTitle(h), date.Format(calendar.KeyLayout)))
}

func (b *Bot) handleAngs(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	n, date, err := parseAngsArgs(b.services.Progress.Calendar(), args)
	if err == nil {
		err = b.services.Progress.SetAngs(date, n)
	}
	if err != nil {
		b.reply(err, "")
		return
	}
	p := b.services.Progress.Paath().Progress()
	b.SendMessageOrLogError(fmt.Sprintf("📖 %d angs saved for %s\nTotal: %d / %d (%.1f%%)",
		n, date.Format(calendar.KeyLayout), p.Total, p.TargetTotal, p.Percent))
}

func (b *Bot) handleTarget(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	date, err := parseTargetArgs(b.services.Progress.Calendar(), args)
	if err != nil {
		b.reply(err, "")
		return
	}
	b.services.Progress.SetTargetDate(date)
	if date == nil {
		b.SendMessageOrLogError("🎯 Target date cleared")
		return
	}
	b.SendMessageOrLogError(FormatProgress(b.services.Progress.Paath().Progress()))
}

func (b *Bot) handleProgress(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(FormatProgress(b.services.Progress.Paath().Progress()))
}

func (b *Bot) handleWeek(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(FormatWeek(b.services.Progress.Week(time.Time{})))
}

func (b *Bot) handleCalendar(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	month, err := parseMonthArgs(b.services.Progress.Calendar(), args)
	if err != nil {
		b.reply(err, "")
		return
	}
	b.SendMessageOrLogError(FormatCalendar(month, b.services.Progress.MonthView(month)))
}

func (b *Bot) handleWidget(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(FormatWidget(b.services.Widget.Refresh()))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(FormatAnalytics(b.services.Analytics.GetWeeklyAnalytics(time.Time{})))
}

func (b *Bot) handleHabits(msg *tgbotapi.Message) {
	b.SendMessageOrLogError(FormatHabits(b.services.Habits.List()))
}

func (b *Bot) handleAddHabit(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	name, emoji, err := parseAddHabitArgs(args)
	if err != nil {
		b.reply(err, "")
		return
	}
	h, err := b.services.Habits.Add(name, emoji)
	b.reply(err, fmt.Sprintf("➕ Added %s", habitTitle(h)))
}

func (b *Bot) handleHide(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	h, err := b.services.Habits.Find(strings.Join(args, " "))
	if err == nil {
		err = b.services.Habits.ToggleVisibility(h.ID)
	}
	if err != nil {
		b.reply(err, "")
		return
	}
	b.SendMessageOrLogError(FormatHabits(b.services.Habits.List()))
}

func (b *Bot) handleDeleteHabit(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	h, err := b.services.Habits.Find(strings.Join(args, " "))
	if err != nil {
		b.reply(err, "")
		return
	}
	if h.IsSystem {
		b.SendMessageOrLogError("⚠️ Built-in habits can only be hidden. Use /hide")
		return
	}
	b.services.Habits.Delete(h.ID)
	b.SendMessageOrLogError(fmt.Sprintf("🗑 Deleted %s", habitTitle(h)))
}

func (b *Bot) handleMove(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	from, to, err := parseMoveArgs(args)
	if err != nil {
		b.reply(err, "")
		return
	}
	b.services.Habits.Move(from, to)
	b.SendMessageOrLogError(FormatHabits(b.services.Habits.List()))
}

func (b *Bot) handleReminders(msg *tgbotapi.Message) {
	ns := b.services.Notification
	_, args := splitCommand(msg.Text)
	if len(args) > 0 {
		enabled, times, err := parseReminderArgs(args)
		if err == nil {
			err = ns.SetReminders(enabled, times)
		}
		if err != nil {
			b.reply(err, "")
			return
		}
	}
	b.SendMessageOrLogError(FormatReminders(ns.ReminderSettings(), ns.QuoteSettings(), len(ns.Quotes())))
}

func (b *Bot) handleQuotes(msg *tgbotapi.Message) {
	ns := b.services.Notification
	_, args := splitCommand(msg.Text)

	switch len(args) {
	case 0:
		b.SendMessageOrLogError(FormatQuotes(ns.Quotes()))
		return
	case 1:
		enabled, ok := parseOnOff(args[0])
		if !ok {
			b.reply(usage("/quotes on|off"), "")
			return
		}
		ns.SetQuotesEnabled(enabled)
	case 2:
		enabled, ok := parseOnOff(args[1])
		if !ok {
			b.reply(usage("/quotes morning|afternoon|night on|off"), "")
			return
		}
		if err := ns.SetQuoteSlot(strings.ToLower(args[0]), enabled); err != nil {
			b.reply(err, "")
			return
		}
	default:
		b.reply(usage("/quotes [on|off|morning|afternoon|night on|off]"), "")
		return
	}
	b.SendMessageOrLogError(FormatReminders(ns.ReminderSettings(), ns.QuoteSettings(), len(ns.Quotes())))
}

func (b *Bot) handleAddQuote(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	err := b.services.Notification.AddQuote(strings.Join(args, " "))
	b.reply(err, fmt.Sprintf("💭 Quote saved (%d in the bank)", len(b.services.Notification.Quotes())))
}

func (b *Bot) handleRemoveQuote(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	if len(args) != 1 {
		b.reply(usage("/unquote <n>"), "")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(usage("/unquote <n>"), "")
		return
	}
	b.reply(b.services.Notification.RemoveQuote(n-1), "🗑 Quote removed")
}

func (b *Bot) handleReset(msg *tgbotapi.Message) {
	_, args := splitCommand(msg.Text)
	if len(args) != 1 || args[0] != "confirm" {
		b.SendMessageOrLogError("⚠️ This erases every habit record and restarts Sehaj Paath from today.\nSend <code>/reset confirm</code> to continue.")
		return
	}
	removed, err := b.services.Reset.ResetAll()
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}
	b.services.Widget.Refresh()
	b.SendMessageOrLogError(fmt.Sprintf("🧹 Reset done, %d records removed", removed))
}
