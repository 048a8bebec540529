package services

import (
	"daya/internal/calendar"
	"daya/internal/habits"
	"daya/internal/kv"
)

// Options tune the services built by NewServiceManager.
type Options struct {
	TargetTotal int
	SentLog     NotificationLog
}

type ServiceManager struct {
	Progress     *ProgressService
	Widget       *WidgetService
	Live         *LiveActivityService
	Notification *NotificationService
	Analytics    *AnalyticsService
	Reset        *ResetService
	Habits       *habits.Registry

	store kv.Store
	opts  Options
}

// NewServiceManager builds every service over store, the store the app
// reads and writes, and shared, the store the widget reads.
func NewServiceManager(store, shared kv.Store, cal calendar.Calendar, opts Options) *ServiceManager {
	if opts.SentLog == nil {
		opts.SentLog = newMemoryLog()
	}

	registry := habits.NewRegistry(store)
	progress := NewProgressService(store, cal, registry, opts.TargetTotal)
	live := NewLiveActivityService(cal, progress.Simran(), progress.Paath())

	sm := &ServiceManager{
		Progress:     progress,
		Widget:       NewWidgetService(shared, cal, opts.TargetTotal),
		Live:         live,
		Notification: NewNotificationService(nil, store, progress, opts.SentLog),
		Analytics:    NewAnalyticsService(progress),
		Reset:        NewResetService(store, shared, progress),
		Habits:       registry,
		store:        store,
		opts:         opts,
	}

	progress.OnChange(func() { live.Refresh() })
	live.Refresh()
	return sm
}

// SetNotificationSender rebuilds the notification service around sender.
func (sm *ServiceManager) SetNotificationSender(sender NotificationSender) {
	sm.Notification = NewNotificationService(sender, sm.store, sm.Progress, sm.opts.SentLog)
}
