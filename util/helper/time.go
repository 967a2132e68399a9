package helper_util

import (
	"time"
)

// Helper function to parse time
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	return t, err
}

// ParseTimeOrDefault parses an RFC3339 timestamp, returning the given
// default when the value is empty.
func ParseTimeOrDefault(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return ParseTime(s)
}
