package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the persisted capture/last-seen timestamp format
// (YYYY-MM-DD HH:MM:SS.ffffff). Timestamps are stored as UTC wall clock.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// FormatTimestamp renders t in the persisted layout at microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a persisted timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// TruncateTimestamp reduces t to the precision the persisted layout keeps.
func TruncateTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
