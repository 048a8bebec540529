package services

import (
	"fmt"
	"time"

	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/tracker"
)

// HabitWeekStats is one habit's tally for a week.
type HabitWeekStats struct {
	Habit    habits.Habit
	Done     int
	Answered int
	Days     int
}

// Rate is the share of counted days the habit was done, in percent.
func (s HabitWeekStats) Rate() float64 {
	if s.Days == 0 {
		return 0
	}
	return 100 * float64(s.Done) / float64(s.Days)
}

// WeeklyAnalytics summarises one Sunday-anchored week.
type WeeklyAnalytics struct {
	Start          time.Time
	End            time.Time
	Days           int
	Habits         []HabitWeekStats
	PaathAngs      int
	TotalDone      int
	TotalPossible  int
	CompletionRate float64
	Insights       []string
}

type AnalyticsService struct {
	cal      calendar.Calendar
	progress *ProgressService
}

func NewAnalyticsService(progress *ProgressService) *AnalyticsService {
	return &AnalyticsService{cal: progress.Calendar(), progress: progress}
}

// GetWeeklyAnalytics tallies the week containing ref. Days after today are
// not counted.
func (as *AnalyticsService) GetWeeklyAnalytics(ref time.Time) WeeklyAnalytics {
	if ref.IsZero() {
		ref = as.cal.Today()
	}

	start := as.cal.WeekStart(ref)
	wa := WeeklyAnalytics{
		Start: start,
		End:   as.cal.AddDays(start, 6),
		Days:  min(7, max(0, as.cal.DaysBetween(start, as.cal.Today())+1)),
	}

	paath := as.progress.Paath()
	for i := 0; i < wa.Days; i++ {
		wa.PaathAngs += paath.DailyDelta(as.cal.AddDays(start, i))
	}

	for _, h := range as.progress.Habits().Visible() {
		stats := HabitWeekStats{Habit: h, Days: wa.Days}
		for i := 0; i < wa.Days; i++ {
			status := as.progress.dayStatus(h, as.cal.AddDays(start, i))
			if status.Done {
				stats.Done++
			}
			if status.Done || status.Angs > 0 || status.Record != tracker.Unanswered {
				stats.Answered++
			}
		}
		wa.Habits = append(wa.Habits, stats)
		wa.TotalDone += stats.Done
		wa.TotalPossible += stats.Days
	}

	if wa.TotalPossible > 0 {
		wa.CompletionRate = 100 * float64(wa.TotalDone) / float64(wa.TotalPossible)
	}
	wa.Insights = as.generateInsights(wa)
	return wa
}

func (as *AnalyticsService) generateInsights(wa WeeklyAnalytics) []string {
	if wa.TotalPossible == 0 {
		return []string{"📊 Not enough data yet. Keep tracking!"}
	}

	var insights []string
	switch {
	case wa.CompletionRate < 50:
		insights = append(insights, "💪 More focus needed to keep the practice going")
	case wa.CompletionRate > 80:
		insights = append(insights, "🎯 Excellent week! Keep it up")
	default:
		insights = append(insights, "📈 Good progress, room to grow")
	}

	for _, s := range wa.Habits {
		if s.Rate() < 40 {
			insights = append(insights, fmt.Sprintf("⚠️ %s needs attention: %.0f%% done", s.Habit.Title(), s.Rate()))
		}
	}

	if wa.Days > 0 && wa.PaathAngs > 0 {
		insights = append(insights, fmt.Sprintf("📖 %.1f angs per day this week", float64(wa.PaathAngs)/float64(wa.Days)))
	}
	return insights
}
