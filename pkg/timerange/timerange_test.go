package timerange

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormats(t *testing.T) {
	cases := []struct {
		in    string
		start Clock
		end   Clock
	}{
		{"08:00-15:30", NewClock(8, 0), NewClock(15, 30)},
		{" 9:15 - 10:00 ", NewClock(9, 15), NewClock(10, 0)},
		{"08:00 AM - 03:30 PM", NewClock(8, 0), NewClock(15, 30)},
		{"12:00 am - 12:30 pm", NewClock(0, 0), NewClock(12, 30)},
		{"22:00-02:00", NewClock(22, 0), NewClock(2, 0)},
	}
	for _, tc := range cases {
		r, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.start, r.Start, tc.in)
		assert.Equal(t, tc.end, r.End, tc.in)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "8", "08:00", "08:00-09:00-10:00", "25:00-26:00", "08:00 AM-09:00 AM", "noon - 1:00 PM",
		"09:00 AM - 17:00", "13:00 - 5:00 PM", "00:30 AM - 01:00 AM", "13:00 PM - 02:00 PM"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		var perr *ParseError
		assert.True(t, errors.As(err, &perr), in)
	}
}

func TestParseClockTwelveHourBounds(t *testing.T) {
	c, err := ParseClock("12:15 AM")
	require.NoError(t, err)
	assert.Equal(t, NewClock(0, 15), c)

	_, err = ParseClock("00:15 AM")
	assert.Error(t, err)

	c, err = ParseClock("00:15")
	require.NoError(t, err)
	assert.Equal(t, NewClock(0, 15), c)
}

func TestOverlapsNonOvernight(t *testing.T) {
	morning := MustParse("08:00-12:00")
	late := MustParse("11:00-13:00")
	afternoon := MustParse("12:00-15:00")

	assert.True(t, morning.Overlaps(late))
	assert.False(t, morning.Overlaps(afternoon), "touching ranges do not overlap")
	assert.False(t, afternoon.Overlaps(morning))
}

func TestOverlapsSymmetricForDaytimeRanges(t *testing.T) {
	ranges := []TimeRange{
		MustParse("00:00-01:00"),
		MustParse("08:00-12:00"),
		MustParse("09:30-09:45"),
		MustParse("11:59-12:01"),
		MustParse("12:00-23:59"),
		MustParse("10:00-10:00"),
	}
	for _, a := range ranges {
		for _, b := range ranges {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "%s vs %s", a, b)
		}
	}
}

func TestOverlapsOvernight(t *testing.T) {
	night := MustParse("22:00-02:00")

	assert.True(t, night.Overlaps(MustParse("23:00-23:30")))
	assert.True(t, night.Overlaps(MustParse("01:00-03:00")))
	assert.True(t, MustParse("01:00-03:00").Overlaps(night))
	assert.False(t, night.Overlaps(MustParse("08:00-15:00")))
	assert.False(t, MustParse("08:00-15:00").Overlaps(night))
	assert.True(t, night.Overlaps(MustParse("23:00-01:00")), "two overnight ranges always overlap")
	assert.True(t, MustParse("23:50-00:10").Overlaps(MustParse("03:00-01:00")))
}

func TestContainsInclusiveBoundaries(t *testing.T) {
	for _, r := range []TimeRange{MustParse("08:00-15:00"), MustParse("22:00-02:00"), MustParse("00:00-23:59")} {
		assert.True(t, r.Contains(r.Start), r.String())
		assert.True(t, r.Contains(r.End), r.String())
	}
	night := MustParse("22:00-02:00")
	assert.True(t, night.Contains(NewClock(0, 30)))
	assert.False(t, night.Contains(NewClock(12, 0)))
	assert.False(t, MustParse("08:00-15:00").Contains(NewClock(15, 1)))
}

func TestRender12hRoundTrip(t *testing.T) {
	for _, r := range []TimeRange{
		New(NewClock(0, 0), NewClock(12, 0)),
		New(NewClock(12, 0), NewClock(0, 0)),
		New(NewClock(8, 5), NewClock(15, 45)),
		New(NewClock(23, 59), NewClock(0, 1)),
		New(NewClock(13, 0), NewClock(13, 0)),
	} {
		parsed, err := Parse(r.Render12h())
		require.NoError(t, err, r.Render12h())
		assert.Equal(t, r, parsed)
		assert.Equal(t, r.Overnight(), parsed.Overnight())
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 7*time.Hour, MustParse("08:00-15:00").Duration())
	assert.Equal(t, 4*time.Hour, MustParse("22:00-02:00").Duration())
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday(" monday ")
	require.True(t, ok)
	assert.Equal(t, time.Monday, d)
	_, ok = ParseWeekday("Funday")
	assert.False(t, ok)
}

func TestSameDayIgnoresClock(t *testing.T) {
	a := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}
