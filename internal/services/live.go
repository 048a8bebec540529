package services

import (
	"log"
	"sync"

	"daya/internal/calendar"
	"daya/internal/tracker"
)

// LiveTotal is the number of practices a live status follows.
const LiveTotal = 2

// LiveStatus is the lock-screen progress for the two daily practices.
// Active turns false once both are done for the day.
type LiveStatus struct {
	SimranDone bool
	PaathAngs  int
	Completed  int
	Total      int
	Active     bool
}

// LiveActivityService keeps the current live status.
type LiveActivityService struct {
	cal    calendar.Calendar
	simran *tracker.Binary
	paath  *tracker.Cumulative

	mu       sync.Mutex
	current  LiveStatus
	onUpdate func(LiveStatus)
}

func NewLiveActivityService(cal calendar.Calendar, simran *tracker.Binary, paath *tracker.Cumulative) *LiveActivityService {
	return &LiveActivityService{cal: cal, simran: simran, paath: paath}
}

// OnUpdate sets a callback run whenever Refresh changes the status.
func (ls *LiveActivityService) OnUpdate(fn func(LiveStatus)) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.onUpdate = fn
}

// Compute builds the status for today.
func (ls *LiveActivityService) Compute() LiveStatus {
	today := ls.cal.Today()
	status := LiveStatus{
		SimranDone: ls.simran.IsDone(today),
		PaathAngs:  ls.paath.DailyDelta(today),
		Total:      LiveTotal,
	}
	if status.SimranDone {
		status.Completed++
	}
	if status.PaathAngs > 0 {
		status.Completed++
	}
	status.Active = status.Completed < status.Total
	return status
}

// Refresh recomputes the status and reports whether it changed.
func (ls *LiveActivityService) Refresh() (LiveStatus, bool) {
	status := ls.Compute()

	ls.mu.Lock()
	changed := status != ls.current
	ls.current = status
	hook := ls.onUpdate
	ls.mu.Unlock()

	if changed {
		if !status.Active {
			log.Println("✅ both practices done, live status ended")
		}
		if hook != nil {
			hook(status)
		}
	}
	return status, changed
}

// Current returns the last computed status.
func (ls *LiveActivityService) Current() LiveStatus {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.current
}
