package services

import (
	"log"
	"sync"
	"time"

	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/kv"
	"daya/internal/metrics"
	"daya/internal/tracker"
)

// Snapshot is what the home-screen widget renders.
type Snapshot struct {
	Date         time.Time
	SimranDone   bool
	PaathAngs    int
	Streak       int
	WeekProgress [7]bool
	RefreshedAt  time.Time
}

// WidgetService recomputes the widget snapshot from the shared store only,
// the same view a separate widget process has. It is pull-based: the app
// calls Refresh on a schedule and nothing pushes changes to it.
type WidgetService struct {
	cal    calendar.Calendar
	simran *tracker.Binary
	paath  *tracker.Cumulative

	mu     sync.RWMutex
	latest Snapshot
	ready  bool
}

// NewWidgetService reads from shared, which may be kv.Unavailable; the
// snapshot then shows defaults.
func NewWidgetService(shared kv.Store, cal calendar.Calendar, targetTotal int) *WidgetService {
	return &WidgetService{
		cal:    cal,
		simran: tracker.NewBinary(shared, cal, habits.MorningSimran),
		paath:  tracker.NewCumulative(shared, cal, targetTotal),
	}
}

// Compute builds a fresh snapshot without caching it.
func (ws *WidgetService) Compute() Snapshot {
	today := ws.cal.Today()
	combined := tracker.NewCombined(ws.cal, ws.simran, ws.paath)
	return Snapshot{
		Date:         today,
		SimranDone:   ws.simran.IsDone(today),
		PaathAngs:    ws.paath.DailyDelta(today),
		Streak:       combined.Streak(),
		WeekProgress: combined.WeekProgress(today),
		RefreshedAt:  ws.cal.Now(),
	}
}

// Refresh recomputes and caches the snapshot.
func (ws *WidgetService) Refresh() Snapshot {
	snap := ws.Compute()

	ws.mu.Lock()
	ws.latest = snap
	ws.ready = true
	ws.mu.Unlock()

	metrics.WidgetRefreshes.Inc()
	metrics.CombinedStreak.Set(float64(snap.Streak))
	log.Printf("🔄 widget refreshed: simran=%t angs=%d streak=%d", snap.SimranDone, snap.PaathAngs, snap.Streak)
	return snap
}

// Latest returns the cached snapshot, computing one if none exists yet.
func (ws *WidgetService) Latest() Snapshot {
	ws.mu.RLock()
	snap, ready := ws.latest, ws.ready
	ws.mu.RUnlock()

	if !ready {
		return ws.Refresh()
	}
	return snap
}
