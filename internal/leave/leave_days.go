package leave

import (
	"strings"
	"time"

	leaveerrors "go-leavedesk/internal/leave/errors"
)

const dateLayout = "2006-01-02"

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// DayCount returns the inclusive number of calendar days from start to end.
// Time of day is ignored.
func DayCount(start, end time.Time) (int, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0, leaveerrors.ErrInvalidDateRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// parsePeriod parses both dates and returns them with their day count.
func parsePeriod(startDate, endDate string) (time.Time, time.Time, int, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	days, err := DayCount(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	return start, end, days, nil
}
