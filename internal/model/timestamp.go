package model

import (
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout is the naive local layout used by the current schema.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout formats the calendar day of a timestamp.
const DateLayout = "2006-01-02"

var zonedSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)

// IsZoned reports whether s ends in a UTC designator or a numeric offset.
func IsZoned(s string) bool {
	return zonedSuffix.MatchString(s)
}

// FormatTimestamp renders t as a naive wall-clock string in t's location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseZoned parses an ISO-8601 timestamp that carries a zone suffix.
func ParseZoned(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Offsets without a colon, e.g. +0100.
	for _, layout := range []string{"2006-01-02T15:04:05.999999999Z0700", "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, ErrParse)
}

// ParseTimestamp reads a stored timestamp as a wall-clock reading in UTC.
// Stored datasets are normalized to naive values on load, so a zoned value
// only reaches it from unmigrated input; that value is read in the process
// zone. Callers holding the configured zone use ParseTimestampIn.
func ParseTimestamp(s string) (time.Time, error) {
	return ParseTimestampIn(s, time.Local)
}

// ParseTimestampIn is ParseTimestamp with zoned values moved into loc
// before their wall-clock reading is taken. A nil loc means time.Local.
func ParseTimestampIn(s string, loc *time.Location) (time.Time, error) {
	if IsZoned(s) {
		t, err := ParseZoned(s)
		if err != nil {
			return time.Time{}, err
		}
		if loc == nil {
			loc = time.Local
		}
		return WallClock(t.In(loc)), nil
	}
	for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04", DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, ErrParse)
}

// WallClock re-expresses t's wall-clock reading in UTC.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DayKey returns the calendar day of a wall-clock time.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}
