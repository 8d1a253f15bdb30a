package shared

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

// ParseDay reads a leave date. Leave is booked in whole calendar days, so a
// full RFC3339 timestamp is cut to the day it names in its own offset and
// returned as UTC midnight.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := time.Parse(DayLayout, value); err == nil {
		return day, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", value)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}
