package utils

import (
	"strings"

	"daya/internal/tracker"
)

// RecordEmoji returns the marker shown for a binary habit answer.
func RecordEmoji(r tracker.Record) string {
	switch r {
	case tracker.Done:
		return "✅"
	case tracker.NotDone:
		return "❌"
	default:
		return "⬜"
	}
}

// DoneEmoji is RecordEmoji for a plain done flag.
func DoneEmoji(done bool) string {
	if done {
		return "✅"
	}
	return "⬜"
}

// StatusEmoji returns the calendar dot for a combined day status.
func StatusEmoji(s tracker.DayStatus) string {
	switch s {
	case tracker.StatusAll:
		return "🟢"
	case tracker.StatusSome:
		return "🟡"
	default:
		return "⚪"
	}
}

// StreakEmoji decorates a streak length. Zero gets no decoration.
func StreakEmoji(days int) string {
	switch {
	case days >= 30:
		return "🏆"
	case days >= 7:
		return "🔥"
	case days > 0:
		return "✨"
	default:
		return ""
	}
}

// ProgressBar draws percent as a bar of width cells, clamped to [0, 100].
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = min(max(percent, 0), 100)
	filled := int(percent / 100 * float64(width))
	return strings.Repeat("▓", filled) + strings.Repeat("░", width-filled)
}
