package editor

import (
	"strings"
	"time"
)

const (
	// FormDateLayout is the value format of date inputs.
	FormDateLayout = "2006-01-02"
	// DisplayDateLayout is how dates are rendered in tables.
	DisplayDateLayout = "02/01/2006"
)

// FormDate converts a backend date (YYYY-MM-DD or an ISO timestamp) into the
// date-input format. Date-only fields are stored at midnight UTC, so the
// calendar day is taken in UTC. Unparseable values yield "".
func FormDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return ""
	}
	return t.Format(FormDateLayout)
}

// DisplayDate renders a backend date as DD/MM/YYYY, or "" when unparseable.
func DisplayDate(raw string) string {
	t, ok := parseDate(raw)
	if !ok {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// ParseFormDate parses a date-input value.
func ParseFormDate(s string) (time.Time, error) {
	return time.Parse(FormDateLayout, strings.TrimSpace(s))
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(FormDateLayout, raw); err == nil {
		return t, true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
