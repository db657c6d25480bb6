package utils

import (
	"fmt"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// ParseUserTime accepts RFC3339 timestamps or bare YYYY-MM-DD dates from
// query parameters. A bare date used as a range end is pushed to the last
// second of that day so the day is inclusive.
func ParseUserTime(timeStr string, isEndTime bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t, nil
	}

	t, err := time.Parse(dateOnlyLayout, timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format, expected RFC3339 or YYYY-MM-DD, got %s", timeStr)
	}
	if isEndTime {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
