// Package timeutil provides small time formatting and parsing helpers.
// Parse is used by entry parsing; Format and Ptr have no caller in the
// module outside their tests.
package timeutil

import "time"

// Format renders t as RFC3339Nano in UTC, or "" for a zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Ptr renders t as RFC3339Nano in UTC, returning nil for a zero time.
func Ptr(t time.Time) *string {
	s := Format(t)
	if s == "" {
		return nil
	}
	return &s
}

// Parse parses an RFC3339 timestamp, tolerating the handful of
// variants session files in the wild actually emit (with or without
// fractional seconds, with or without a zone offset already applied).
// Returns the zero time on failure.
func Parse(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
