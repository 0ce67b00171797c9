package utils

import (
	"strconv"
	"time"
)

// secDateLayouts are the date formats seen in EDGAR payloads.
var secDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05-07:00",
	"01/02/2006",
	time.RFC3339,
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseSECDate parses a date from an EDGAR payload. Unknown formats
// return the zero time.
func ParseSECDate(s string) time.Time {
	for _, layout := range secDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// YearOf returns the leading four-digit year of a YYYY-MM-DD date, or 0.
func YearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// FormatDate formats t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
