package leave

import (
	"fmt"
	"math"
	"time"
)

// CalculateDays returns the inclusive day count between start and end.
func CalculateDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: end date before start date", ErrInvalidDateRange)
	}
	return int(math.Floor(end.Sub(start).Hours()/24)) + 1, nil
}

// ValidateDateRange checks a submission's dates. Dates are compared at day
// granularity in the location of today.
func ValidateDateRange(start, end, today time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidDateRange)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidDateRange)
	}
	if truncateDay(start, today.Location()).Before(truncateDay(today, today.Location())) {
		return fmt.Errorf("%w: start date is in the past", ErrInvalidDateRange)
	}
	return nil
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
