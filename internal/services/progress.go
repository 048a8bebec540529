package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/kv"
	"daya/internal/tracker"
)

// ErrNotBinary is returned when a yes/no answer is given for the reading habit.
var ErrNotBinary = errors.New("habit is tracked in angs, not done/not done")

// HabitStatus is one habit's state on a day.
type HabitStatus struct {
	Habit      habits.Habit
	Cumulative bool
	Record     tracker.Record
	Done       bool
	Angs       int
	Streak     int
}

// TodayView is everything the "today" screen shows.
type TodayView struct {
	Date           time.Time
	Habits         []HabitStatus
	CombinedStreak int
	Progress       tracker.Progress
}

// WeekRow is one habit across a Sunday-anchored week.
type WeekRow struct {
	Habit habits.Habit
	Days  [7]bool
}

// WeekView is the Sunday-anchored week grid of every visible habit.
type WeekView struct {
	Start    time.Time
	Labels   [7]string
	Rows     []WeekRow
	Paath    [7]tracker.ProgressDay
	Combined [7]bool
}

// MonthDay is one cell of the calendar month view.
type MonthDay struct {
	Date   time.Time
	Status tracker.DayStatus
	Angs   int
}

// ProgressService resolves habits to trackers and serves every read and
// write the chat and CLI surfaces make.
type ProgressService struct {
	store    kv.Store
	cal      calendar.Calendar
	registry *habits.Registry
	simran   *tracker.Binary
	paath    *tracker.Cumulative

	mu       sync.Mutex
	onChange []func()
}

// NewProgressService initialises the reading tracker's start date if needed.
func NewProgressService(store kv.Store, cal calendar.Calendar, registry *habits.Registry, targetTotal int) *ProgressService {
	ps := &ProgressService{
		store:    store,
		cal:      cal,
		registry: registry,
		simran:   tracker.NewBinary(store, cal, habits.MorningSimran),
		paath:    tracker.NewCumulative(store, cal, targetTotal),
	}
	ps.paath.Init()
	return ps
}

// OnChange registers fn to run after every successful write.
func (ps *ProgressService) OnChange(fn func()) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.onChange = append(ps.onChange, fn)
}

func (ps *ProgressService) changed() {
	ps.mu.Lock()
	hooks := append([]func(){}, ps.onChange...)
	ps.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Calendar returns the calendar the service resolves days with.
func (ps *ProgressService) Calendar() calendar.Calendar {
	return ps.cal
}

// Habits returns the registry.
func (ps *ProgressService) Habits() *habits.Registry {
	return ps.registry
}

// Simran returns the morning simran tracker.
func (ps *ProgressService) Simran() *tracker.Binary {
	return ps.simran
}

// Paath returns the reading tracker.
func (ps *ProgressService) Paath() *tracker.Cumulative {
	return ps.paath
}

// Binary returns the yes/no tracker for a habit id.
func (ps *ProgressService) Binary(id string) *tracker.Binary {
	if id == habits.MorningSimran {
		return ps.simran
	}
	return tracker.NewBinary(ps.store, ps.cal, id)
}

// Predicate returns the done-predicate backing habit h.
func (ps *ProgressService) Predicate(h habits.Habit) tracker.Predicate {
	if h.ID == habits.SehajPaath {
		return ps.paath
	}
	return ps.Binary(h.ID)
}

// Combined returns a combined view over every visible habit.
func (ps *ProgressService) Combined() *tracker.Combined {
	visible := ps.registry.Visible()
	preds := make([]tracker.Predicate, 0, len(visible))
	for _, h := range visible {
		preds = append(preds, ps.Predicate(h))
	}
	return tracker.NewCombined(ps.cal, preds...)
}

// CombinedStreak is the run of days on which both simran and paath were done.
func (ps *ProgressService) CombinedStreak() int {
	return ps.paath.CombinedStreak(ps.simran)
}

func (ps *ProgressService) binaryHabit(ref string) (habits.Habit, *tracker.Binary, error) {
	h, err := ps.registry.Find(ref)
	if err != nil {
		return habits.Habit{}, nil, err
	}
	if h.ID == habits.SehajPaath {
		return h, nil, fmt.Errorf("%w: %s", ErrNotBinary, h.Name)
	}
	return h, ps.Binary(h.ID), nil
}

// Mark records done or not done for habit ref on date.
func (ps *ProgressService) Mark(ref string, date time.Time, done bool) (habits.Habit, error) {
	h, b, err := ps.binaryHabit(ref)
	if err != nil {
		return h, err
	}
	b.Mark(date, done)
	ps.changed()
	return h, nil
}

// Clear removes the answer for habit ref on date.
func (ps *ProgressService) Clear(ref string, date time.Time) (habits.Habit, error) {
	h, b, err := ps.binaryHabit(ref)
	if err != nil {
		return h, err
	}
	b.Clear(date)
	ps.changed()
	return h, nil
}

// SetAngs stores the angs read on date.
func (ps *ProgressService) SetAngs(date time.Time, angs int) error {
	if err := ps.paath.SetDailyDelta(date, angs); err != nil {
		return err
	}
	ps.changed()
	return nil
}

// SetTargetDate sets or, for nil, clears the reading target date.
func (ps *ProgressService) SetTargetDate(date *time.Time) {
	ps.paath.SetTargetDate(date)
	ps.changed()
}

// Status returns habit h's state on date, with the streak ending on date.
func (ps *ProgressService) Status(h habits.Habit, date time.Time) HabitStatus {
	status := ps.dayStatus(h, date)
	if h.ID == habits.SehajPaath {
		status.Streak = ps.paath.StreakFrom(date)
	} else {
		status.Streak = ps.Binary(h.ID).StreakFrom(date)
	}
	return status
}

// dayStatus is Status without the streak scan.
func (ps *ProgressService) dayStatus(h habits.Habit, date time.Time) HabitStatus {
	if h.ID == habits.SehajPaath {
		return HabitStatus{
			Habit:      h,
			Cumulative: true,
			Done:       ps.paath.DidComplete(date),
			Angs:       ps.paath.DailyDelta(date),
		}
	}

	record := ps.Binary(h.ID).Record(date)
	return HabitStatus{
		Habit:  h,
		Record: record,
		Done:   record == tracker.Done,
	}
}

// Today builds the view of every visible habit for the current day.
func (ps *ProgressService) Today() TodayView {
	today := ps.cal.Today()
	view := TodayView{
		Date:           today,
		CombinedStreak: ps.CombinedStreak(),
		Progress:       ps.paath.Progress(),
	}
	for _, h := range ps.registry.Visible() {
		view.Habits = append(view.Habits, ps.Status(h, today))
	}
	return view
}

// Week builds the Sunday-anchored grid for the week containing ref.
func (ps *ProgressService) Week(ref time.Time) WeekView {
	if ref.IsZero() {
		ref = ps.cal.Today()
	}

	view := WeekView{
		Start:    ps.cal.WeekStart(ref),
		Paath:    ps.paath.WeekWindow(ref),
		Combined: tracker.NewCombined(ps.cal, ps.simran, ps.paath).WeekProgress(ref),
	}
	for i := range view.Labels {
		view.Labels[i] = ps.cal.Label(ps.cal.AddDays(view.Start, i))
	}

	for _, h := range ps.registry.Visible() {
		row := WeekRow{Habit: h}
		if h.ID == habits.SehajPaath {
			for i, d := range view.Paath {
				row.Days[i] = d.Completed
			}
		} else {
			for i, d := range ps.Binary(h.ID).WeekWindow(ref) {
				row.Days[i] = d.Record == tracker.Done
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// MonthView returns one cell per day of the month containing month, with the
// combined status of every visible habit and the angs read that day.
func (ps *ProgressService) MonthView(month time.Time) []MonthDay {
	combined := ps.Combined()
	first := ps.cal.MonthStart(month)
	next := first.AddDate(0, 1, 0)

	var days []MonthDay
	for date := first; date.Before(next); date = ps.cal.AddDays(date, 1) {
		days = append(days, MonthDay{
			Date:   date,
			Status: combined.Status(date),
			Angs:   ps.paath.DailyDelta(date),
		})
	}
	return days
}
