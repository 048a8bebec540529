package utils

import (
	"fmt"
	"log"
	"time"
)

// LoadLocation resolves an IANA zone name. An empty name means the host's
// local zone; an unknown name falls back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️ unknown time zone %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// FormatDate renders a day for chat output.
func FormatDate(t time.Time) string {
	return t.Format("Mon, 2 Jan 2006")
}

// FormatClock renders hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatOffset renders the zone offset of t as UTC+H or UTC+H:MM.
func FormatOffset(t time.Time) string {
	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours, minutes := offset/3600, offset%3600/60
	if minutes == 0 {
		return fmt.Sprintf("UTC%s%d", sign, hours)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, hours, minutes)
}

// TimezoneInfo describes the local time of now next to server UTC time.
func TimezoneInfo(now time.Time) string {
	return fmt.Sprintf("🕐 Local time: %s (%s)\n   Server time: %s UTC",
		now.Format("15:04"), FormatOffset(now), now.UTC().Format("15:04"))
}
