// Package metrics exposes the tracker's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreErrors counts store operations that failed and were degraded to defaults.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "store_errors_total",
		Help:      "Store operations that failed and were degraded to a default or no-op",
	}, []string{"op"})

	// MirrorWriteFailures counts writes that reached the primary store but not the mirror.
	MirrorWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "mirror_write_failures_total",
		Help:      "Writes that succeeded on the primary store but failed on the shared mirror",
	})

	// HabitMarks counts habit answers by outcome (done, not_done, cleared).
	HabitMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "habit_marks_total",
		Help:      "Daily habit answers recorded",
	}, []string{"outcome"})

	// AngsRecorded counts angs written through SetDailyDelta.
	AngsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "angs_recorded_total",
		Help:      "Angs written as daily reading deltas",
	})

	// WidgetRefreshes counts widget snapshot recomputations.
	WidgetRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "widget_refreshes_total",
		Help:      "Widget snapshot recomputations",
	})

	// NotificationsSent counts outgoing reminders and quotes by kind.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "daya",
		Name:      "notifications_sent_total",
		Help:      "Notifications handed to the sender",
	}, []string{"kind"})

	// CombinedStreak reports the last computed combined streak.
	CombinedStreak = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "daya",
		Name:      "combined_streak_days",
		Help:      "Combined streak observed at the last widget refresh",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
