package timerange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	layout24h = "15:04"
	layout12h = "03:04 PM"
	parse12h  = "3:04 PM"

	minutesPerDay = 24 * 60
)

// ParseError reports malformed time-range or time-of-day text.
type ParseError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time range %q: %s", e.Input, e.Reason)
}

// Clock is a time of day expressed as minutes after midnight.
type Clock int

// NewClock builds a Clock from hour and minute components.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// Hour returns the 24-hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return c.asTime().Format(layout24h)
}

// Format12h renders the clock as hh:mm AM/PM.
func (c Clock) Format12h() string {
	return c.asTime().Format(layout12h)
}

func (c Clock) asTime() time.Time {
	return time.Date(2000, time.January, 1, c.Hour(), c.Minute(), 0, 0, time.UTC)
}

// ParseClock accepts either "HH:MM" or "hh:mm AM/PM".
func ParseClock(text string) (Clock, error) {
	layout := layout24h
	if is12h(strings.ToUpper(text)) {
		layout = parse12h
	}
	return parseClock(text, layout)
}

// parseClock parses text strictly in layout. In 12-hour form the hour must be
// 1 through 12.
func parseClock(text, layout string) (Clock, error) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	t, err := time.Parse(layout, upper)
	if err != nil {
		return 0, &ParseError{Input: text, Reason: "expected HH:MM or hh:mm AM/PM"}
	}
	if layout == parse12h {
		hour, _, _ := strings.Cut(upper, ":")
		if n, err := strconv.Atoi(hour); err != nil || n < 1 || n > 12 {
			return 0, &ParseError{Input: text, Reason: "12-hour clock needs an hour from 1 to 12"}
		}
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

// TimeRange is an interval within a day. End before Start means the range
// wraps past midnight.
type TimeRange struct {
	Start Clock
	End   Clock
}

// New constructs a TimeRange from two clocks.
func New(start, end Clock) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Parse accepts "HH:MM-HH:MM" or "hh:mm AM/PM - hh:mm AM/PM".
func Parse(text string) (TimeRange, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return TimeRange{}, &ParseError{Input: text, Reason: "empty"}
	}
	upper := strings.ToUpper(raw)

	layout, sep := layout24h, "-"
	if is12h(upper) {
		layout, sep = parse12h, " - "
	}
	parts := strings.Split(upper, sep)
	if len(parts) != 2 {
		return TimeRange{}, &ParseError{Input: text, Reason: "expected exactly one separator"}
	}

	start, err := parseClock(parts[0], layout)
	if err != nil {
		return TimeRange{}, &ParseError{Input: text, Reason: "bad start time"}
	}
	end, err := parseClock(parts[1], layout)
	if err != nil {
		return TimeRange{}, &ParseError{Input: text, Reason: "bad end time"}
	}
	return TimeRange{Start: start, End: end}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) TimeRange {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// Overnight reports whether the range crosses midnight.
func (r TimeRange) Overnight() bool {
	return r.End < r.Start
}

// Overlaps reports whether two ranges intersect. Two overnight ranges always
// overlap; both share the midnight instant.
func (r TimeRange) Overlaps(other TimeRange) bool {
	switch {
	case r.Overnight() && other.Overnight():
		return true
	case r.Overnight():
		return !(other.End <= r.Start && other.Start >= r.End)
	case other.Overnight():
		return !(r.End <= other.Start && r.Start >= other.End)
	default:
		return r.Start < other.End && r.End > other.Start
	}
}

// Contains reports whether the instant falls inside the range, inclusive of
// both ends.
func (r TimeRange) Contains(instant Clock) bool {
	if r.Overnight() {
		return instant >= r.Start || instant <= r.End
	}
	return r.Start <= instant && instant <= r.End
}

// Duration is the length of the range, wrapping past midnight when overnight.
func (r TimeRange) Duration() time.Duration {
	minutes := int(r.End) - int(r.Start)
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return time.Duration(minutes) * time.Minute
}

// String renders the 24-hour form "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Render12h renders "hh:mm AM - hh:mm PM".
func (r TimeRange) Render12h() string {
	return r.Start.Format12h() + " - " + r.End.Format12h()
}

func is12h(upper string) bool {
	return strings.Contains(upper, "AM") || strings.Contains(upper, "PM")
}
