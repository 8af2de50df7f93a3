package timer

import (
	"fmt"
	"time"
)

// DisplayFormat selects how FormatDuration renders a duration.
type DisplayFormat string

// Supported display formats
const (
	FormatMMSS    DisplayFormat = "mm:ss"
	FormatHMMSS   DisplayFormat = "h:mm:ss"
	FormatCompact DisplayFormat = "compact"
)

// FormatDuration renders a duration for countdown display. Unknown formats
// fall back to mm:ss.
func FormatDuration(d time.Duration, format DisplayFormat) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch format {
	case FormatHMMSS:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	case FormatCompact:
		if hours > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		if minutes > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%ds", seconds)
	default:
		return fmt.Sprintf("%02d:%02d", total/60, seconds)
	}
}
