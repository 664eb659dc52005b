package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders a shift duration as "3h 27m". Sub-minute noise
// is rounded away; negative inputs clamp to zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatClock renders the wall-clock part of t in UTC, e.g. "08:30".
func FormatClock(t time.Time) string {
	return t.UTC().Format("15:04")
}
