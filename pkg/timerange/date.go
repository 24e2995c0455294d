package timerange

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay compares two instants by calendar date only.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(text string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", text, err)
	}
	return t, nil
}

// ParseWeekday resolves an English weekday name, case-insensitively.
func ParseWeekday(name string) (time.Weekday, bool) {
	needle := strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), needle) {
			return d, true
		}
	}
	return 0, false
}
