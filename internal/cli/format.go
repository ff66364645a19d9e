// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// FormatMass formats grams with two decimals.
// e.g., 0.83 -> "0.83g", -0.25 -> "-0.25g"
func FormatMass(g float64) string {
	return fmt.Sprintf("%.2fg", g)
}

// FormatRate formats a per-day rate with three decimals.
// e.g., 0.057 -> "0.057/day"
func FormatRate(perDay float64) string {
	return fmt.Sprintf("%.3f/day", perDay)
}

// FormatChange formats a week-over-week percentage with its sign.
// e.g., 50 -> "+50.0%", -12.5 -> "-12.5%", 0 -> "0.0%"
func FormatChange(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDepletion describes a depletion projection in a few words.
func FormatDepletion(d model.Depletion) string {
	switch {
	case d.Depleted:
		return "depleted"
	case d.InsufficientData():
		return "not enough data"
	case *d.DaysRemaining == 1:
		return "1 day (" + d.Date.Format("Jan 2") + ")"
	default:
		return fmt.Sprintf("%d days (%s)", *d.DaysRemaining, d.Date.Format("Jan 2"))
	}
}

// FormatTimestamp renders a stored timestamp for tables, e.g.
// "Mar 04 10:00". Unreadable values are shown as stored.
func FormatTimestamp(ts string) string {
	t, err := model.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("Jan 02 15:04")
}

// FormatDate renders a calendar date, or "-" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// ShortID trims a UUID to its first block for display.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && len(id) == 36 {
		return id[:i]
	}
	return id
}
