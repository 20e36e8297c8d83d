package telemetry

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order when no explicit layout is configured.
// Slash and dash dates without a leading year are read day-first, which is
// how the recorder and Indian locale spreadsheets write them. Fractional
// seconds are accepted by every layout that has a seconds field.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-Jan-2006 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with layout, or with the first matching entry of
// the built-in layout list when layout is empty. Timestamps without an
// explicit offset are interpreted in loc (UTC when nil).
//
// Auto-detection is day-first, so an ambiguous date such as 01/02/2024 is
// 1 February. Month-first exports (pandas and most US tools read that value
// as 2 January) need an explicit layout such as "01/02/2006 15:04:05".
func ParseTimestamp(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	if layout != "" {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}
	for _, l := range timestampLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
