package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"daya/internal/calendar"
	"daya/internal/kv"
	"daya/internal/metrics"
	"daya/internal/utils"
)

// ErrInvalidSetting is returned for reminder or quote settings out of range.
var ErrInvalidSetting = errors.New("invalid setting")

const (
	RemindersEnabledKey  = "dailyRemindersEnabled"
	ReminderFrequencyKey = "reminderFrequency"
	reminderTimeKey      = "reminderTime"

	QuoteBankKey       = "quote_bank"
	QuotesEnabledKey   = "quoteNotificationsEnabled"
	MorningQuotesKey   = "morningQuotesEnabled"
	AfternoonQuotesKey = "afternoonQuotesEnabled"
	NightQuotesKey     = "nightQuotesEnabled"

	// MaxReminders is the number of daily reminder slots.
	MaxReminders = 3
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses HH:MM in 24-hour form.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return Clock{}, fmt.Errorf("%w: time must be HH:MM, got %q", ErrInvalidSetting, s)
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: time must be HH:MM, got %q", ErrInvalidSetting, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) String() string {
	return utils.FormatClock(c.Hour, c.Minute)
}

// Matches reports whether t falls in this clock's minute.
func (c Clock) Matches(t time.Time) bool {
	return t.Hour() == c.Hour && t.Minute() == c.Minute
}

// DefaultReminderTimes are used for reminder slots that were never set.
var DefaultReminderTimes = [MaxReminders]Clock{{9, 0}, {14, 0}, {20, 0}}

// ReminderSettings are the daily reminder preferences.
type ReminderSettings struct {
	Enabled   bool
	Frequency int
	Times     [MaxReminders]Clock
}

// Active returns the reminder times in use for the configured frequency.
func (rs ReminderSettings) Active() []Clock {
	return rs.Times[:min(max(rs.Frequency, 1), MaxReminders)]
}

// QuoteSlot is one fixed time of day a quote can be sent.
type QuoteSlot struct {
	Name  string
	Key   string
	Clock Clock
}

// QuoteSlots are the morning, afternoon and night quote times.
var QuoteSlots = []QuoteSlot{
	{Name: "morning", Key: MorningQuotesKey, Clock: Clock{10, 0}},
	{Name: "afternoon", Key: AfternoonQuotesKey, Clock: Clock{14, 30}},
	{Name: "night", Key: NightQuotesKey, Clock: Clock{19, 30}},
}

// QuoteSettings are the quote notification preferences.
type QuoteSettings struct {
	Enabled bool
	Slots   map[string]bool
}

// NotificationSender delivers messages to the user.
type NotificationSender interface {
	SendMessage(text string) error
	SendReminder(view TodayView) error
}

// NotificationLog remembers which slots already fired on a day.
type NotificationLog interface {
	MarkNotificationSent(slot, date string) (bool, error)
	PruneNotifications(before string) error
}

type memoryLog struct {
	mu   sync.Mutex
	sent map[string]bool
}

func newMemoryLog() *memoryLog {
	return &memoryLog{sent: make(map[string]bool)}
}

func (m *memoryLog) MarkNotificationSent(slot, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := date + "/" + slot
	if m.sent[key] {
		return false, nil
	}
	m.sent[key] = true
	return true, nil
}

func (m *memoryLog) PruneNotifications(before string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.sent {
		if date, _, _ := strings.Cut(key, "/"); date < before {
			delete(m.sent, key)
		}
	}
	return nil
}

type NotificationService struct {
	sender   NotificationSender
	store    kv.Accessor
	cal      calendar.Calendar
	progress *ProgressService
	sentLog  NotificationLog
	pick     func(n int) int
}

// NewNotificationService returns a service that sends through sender. A nil
// sentLog keeps the record of fired slots in memory.
func NewNotificationService(sender NotificationSender, store kv.Store, progress *ProgressService, sentLog NotificationLog) *NotificationService {
	if sentLog == nil {
		sentLog = newMemoryLog()
	}
	return &NotificationService{
		sender:   sender,
		store:    kv.Access(store),
		cal:      progress.Calendar(),
		progress: progress,
		sentLog:  sentLog,
		pick:     rand.IntN,
	}
}

// ReminderSettings loads the reminder preferences, filling defaults.
func (ns *NotificationService) ReminderSettings() ReminderSettings {
	enabled, _ := ns.store.Bool(RemindersEnabledKey)
	rs := ReminderSettings{
		Enabled:   enabled,
		Frequency: ns.store.Int(ReminderFrequencyKey),
		Times:     DefaultReminderTimes,
	}
	if rs.Frequency < 1 || rs.Frequency > MaxReminders {
		rs.Frequency = 1
	}
	for i := range rs.Times {
		if t, ok := ns.store.Time(reminderKey(i)); ok {
			t = t.In(ns.cal.Location())
			rs.Times[i] = Clock{Hour: t.Hour(), Minute: t.Minute()}
		}
	}
	return rs
}

func reminderKey(i int) string {
	return reminderTimeKey + strconv.Itoa(i+1)
}

// SetReminders turns reminders on or off. When times are given they replace
// the first len(times) slots and set the frequency.
func (ns *NotificationService) SetReminders(enabled bool, times []Clock) error {
	if len(times) > MaxReminders {
		return fmt.Errorf("%w: at most %d reminders, got %d", ErrInvalidSetting, MaxReminders, len(times))
	}

	ns.store.Set(RemindersEnabledKey, kv.Bool(enabled))
	if len(times) == 0 {
		return nil
	}

	ns.store.Set(ReminderFrequencyKey, kv.Int(len(times)))
	today := ns.cal.Today()
	for i, c := range times {
		at := time.Date(today.Year(), today.Month(), today.Day(), c.Hour, c.Minute, 0, 0, ns.cal.Location())
		ns.store.Set(reminderKey(i), kv.Time(at))
	}
	return nil
}

// DueReminders returns the slot ids of reminders due at now.
func (ns *NotificationService) DueReminders(now time.Time) []string {
	rs := ns.ReminderSettings()
	if !rs.Enabled {
		return nil
	}

	now = now.In(ns.cal.Location())
	var due []string
	for i, c := range rs.Active() {
		if c.Matches(now) {
			due = append(due, "reminder"+strconv.Itoa(i+1))
		}
	}
	return due
}

// Quotes returns the quote bank.
func (ns *NotificationService) Quotes() []string {
	raw, ok := ns.store.Bytes(QuoteBankKey)
	if !ok {
		return nil
	}
	var quotes []string
	if err := json.Unmarshal(raw, &quotes); err != nil {
		log.Printf("⚠️ quote bank unreadable: %v", err)
		return nil
	}
	return quotes
}

func (ns *NotificationService) saveQuotes(quotes []string) {
	encoded, err := json.Marshal(quotes)
	if err != nil {
		return
	}
	ns.store.Set(QuoteBankKey, kv.Bytes(encoded))
}

// AddQuote appends a non-empty quote to the bank.
func (ns *NotificationService) AddQuote(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: quote is empty", ErrInvalidSetting)
	}
	ns.saveQuotes(append(ns.Quotes(), text))
	return nil
}

// RemoveQuote deletes the quote at index i.
func (ns *NotificationService) RemoveQuote(i int) error {
	quotes := ns.Quotes()
	if i < 0 || i >= len(quotes) {
		return fmt.Errorf("%w: no quote #%d", ErrInvalidSetting, i+1)
	}
	ns.saveQuotes(append(quotes[:i], quotes[i+1:]...))
	return nil
}

// RandomQuote picks a quote from the bank.
func (ns *NotificationService) RandomQuote() (string, bool) {
	quotes := ns.Quotes()
	if len(quotes) == 0 {
		return "", false
	}
	return quotes[ns.pick(len(quotes))], true
}

// QuoteSettings loads the quote notification preferences.
func (ns *NotificationService) QuoteSettings() QuoteSettings {
	enabled, _ := ns.store.Bool(QuotesEnabledKey)
	qs := QuoteSettings{Enabled: enabled, Slots: make(map[string]bool, len(QuoteSlots))}
	for _, slot := range QuoteSlots {
		qs.Slots[slot.Name], _ = ns.store.Bool(slot.Key)
	}
	return qs
}

// SetQuotesEnabled is the master switch for quote notifications.
func (ns *NotificationService) SetQuotesEnabled(enabled bool) {
	ns.store.Set(QuotesEnabledKey, kv.Bool(enabled))
}

// SetQuoteSlot enables or disables one named quote slot.
func (ns *NotificationService) SetQuoteSlot(name string, enabled bool) error {
	for _, slot := range QuoteSlots {
		if slot.Name == name {
			ns.store.Set(slot.Key, kv.Bool(enabled))
			return nil
		}
	}
	return fmt.Errorf("%w: unknown quote slot %q", ErrInvalidSetting, name)
}

// DueQuoteSlots returns the enabled quote slots due at now. Nothing is due
// while the bank is empty.
func (ns *NotificationService) DueQuoteSlots(now time.Time) []QuoteSlot {
	qs := ns.QuoteSettings()
	if !qs.Enabled || len(ns.Quotes()) == 0 {
		return nil
	}

	now = now.In(ns.cal.Location())
	var due []QuoteSlot
	for _, slot := range QuoteSlots {
		if qs.Slots[slot.Name] && slot.Clock.Matches(now) {
			due = append(due, slot)
		}
	}
	return due
}

func (ns *NotificationService) claim(slot string, now time.Time) bool {
	fresh, err := ns.sentLog.MarkNotificationSent(slot, ns.cal.Key(now))
	if err != nil {
		log.Printf("⚠️ notification log: %v", err)
		return true
	}
	return fresh
}

// CheckAndSendNotifications sends every reminder and quote due this minute,
// each at most once per day.
func (ns *NotificationService) CheckAndSendNotifications() {
	ns.checkAt(ns.cal.Now())
}

func (ns *NotificationService) checkAt(now time.Time) {
	if ns.sender == nil {
		return
	}

	for _, slot := range ns.DueReminders(now) {
		if !ns.claim(slot, now) {
			continue
		}
		log.Printf("🔔 sending %s", slot)
		if err := ns.sender.SendReminder(ns.progress.Today()); err != nil {
			log.Printf("❌ reminder %s: %v", slot, err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues("reminder").Inc()
	}

	for _, slot := range ns.DueQuoteSlots(now) {
		if !ns.claim("quote_"+slot.Name, now) {
			continue
		}
		quote, ok := ns.RandomQuote()
		if !ok {
			continue
		}
		if err := ns.sender.SendMessage(FormatQuote(quote)); err != nil {
			log.Printf("❌ %s quote: %v", slot.Name, err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues("quote").Inc()
	}
}

// SendDailySummary sends the end-of-day summary of every visible habit.
func (ns *NotificationService) SendDailySummary() {
	if ns.sender == nil {
		return
	}
	if err := ns.sender.SendMessage(FormatDailySummary(ns.progress.Today())); err != nil {
		log.Printf("⚠️ daily summary: %v", err)
		return
	}
	metrics.NotificationsSent.WithLabelValues("summary").Inc()
}

// PruneLog forgets fired slots older than a week.
func (ns *NotificationService) PruneLog() {
	before := ns.cal.Key(ns.cal.AddDays(ns.cal.Today(), -7))
	if err := ns.sentLog.PruneNotifications(before); err != nil {
		log.Printf("⚠️ prune notification log: %v", err)
	}
}

// FormatQuote renders a quote notification as Telegram HTML.
func FormatQuote(quote string) string {
	return fmt.Sprintf("💭 <b>Daily Inspiration</b>\n\n<i>%s</i>", html.EscapeString(quote))
}

// FormatDailySummary renders the end-of-day summary.
func FormatDailySummary(view TodayView) string {
	var b strings.Builder
	done := 0
	for _, h := range view.Habits {
		if h.Done {
			done++
		}
	}

	fmt.Fprintf(&b, "📊 <b>Summary for %s</b>\n\n", utils.FormatDate(view.Date))
	for _, h := range view.Habits {
		if h.Cumulative {
			fmt.Fprintf(&b, "%s %s: %d angs\n", utils.DoneEmoji(h.Done), html.EscapeString(h.Habit.Title()), h.Angs)
		} else {
			fmt.Fprintf(&b, "%s %s\n", utils.RecordEmoji(h.Record), html.EscapeString(h.Habit.Title()))
		}
	}

	percent := 0.0
	if len(view.Habits) > 0 {
		percent = 100 * float64(done) / float64(len(view.Habits))
	}
	fmt.Fprintf(&b, "\n✅ Done: %d/%d (%.0f%%)\n", done, len(view.Habits), percent)
	fmt.Fprintf(&b, "🔥 Combined streak: %d days\n", view.CombinedStreak)
	b.WriteString("\nTomorrow is a new day! 🌅")
	return b.String()
}
