package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders d with its two most significant units, e.g. 850ms,
// 4.20s, 3m7s, 5h12m, 2d3h.
func FormatDuration(d time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", d/time.Minute, (d%time.Minute)/time.Second)
	case d < day:
		return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
	default:
		return fmt.Sprintf("%dd%dh", d/day, (d%day)/time.Hour)
	}
}
