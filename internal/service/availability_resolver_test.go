package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

func TestAvailabilityAllDayBlocksAnyRange(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	d := day(2025, time.March, 12)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{allDay("e1", d)}}

	for _, rng := range []string{"00:00-00:01", "08:00-15:00", "23:00-01:00", "12:00 PM - 12:30 PM"} {
		r := timerange.MustParse(rng)
		assert.False(t, resolver.IsAvailable(c, d, &r), rng)
	}
	assert.False(t, resolver.IsAvailable(c, d, nil))
	assert.True(t, resolver.IsAvailable(c, d.AddDate(0, 0, 1), nil))
}

func TestAvailabilityPartialExceptionNeedsOverlap(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	d := day(2025, time.March, 12)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{partial("e1", d, "08:00-10:00")}}

	overlapping := timerange.MustParse("09:00-11:00")
	clear := timerange.MustParse("10:00-12:00")

	assert.False(t, resolver.IsAvailable(c, d, &overlapping))
	assert.True(t, resolver.IsAvailable(c, d, &clear))
	assert.True(t, resolver.IsAvailable(c, d, nil), "no requested range means only all-day exceptions block")
}

func TestAvailabilityPartialWithoutRangeDoesNotBlock(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	d := day(2025, time.March, 12)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{{ID: "e1", Date: d}}}

	r := timerange.MustParse("08:00-09:00")
	assert.True(t, resolver.IsAvailable(c, d, &r))
}

func TestAvailabilityMalformedExceptionFailsClosed(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	d := day(2025, time.March, 12)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{partial("e1", d, "morning")}}

	r := timerange.MustParse("13:00-14:00")
	assert.False(t, resolver.IsAvailable(c, d, &r))
}

func TestAvailabilityMalformedRequestFailsClosed(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	c := models.Candidate{ID: "c1"}

	assert.False(t, resolver.IsAvailableText(c, day(2025, time.March, 12), "soon"))
	assert.True(t, resolver.IsAvailableText(c, day(2025, time.March, 12), "08:00-09:00"))
}

func TestAvailabilityWeeklyRecurrence(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	anchor := day(2025, time.March, 3) // Monday
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{
		weekly(allDay("e1", anchor), "Monday", nil),
	}}
	r := timerange.MustParse("08:00-15:00")

	for week := 0; week < 60; week++ {
		monday := anchor.AddDate(0, 0, 7*week)
		assert.False(t, resolver.IsAvailable(c, monday, &r), monday.Format(timerange.DateLayout))
		for offset := 1; offset < 7; offset++ {
			other := monday.AddDate(0, 0, offset)
			assert.True(t, resolver.IsAvailable(c, other, &r), other.Format(timerange.DateLayout))
		}
	}
	assert.True(t, resolver.IsAvailable(c, anchor.AddDate(0, 0, -7), &r), "before the anchor")
}

func TestAvailabilityWeeklyRecurrenceBounds(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	anchor := day(2025, time.March, 5) // Wednesday
	until := day(2025, time.March, 19)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{
		weekly(partial("e1", anchor, "13:00-15:00"), "wednesday", &until),
	}}
	afternoon := timerange.MustParse("14:00-16:00")
	morning := timerange.MustParse("08:00-12:00")

	assert.False(t, resolver.IsAvailable(c, day(2025, time.March, 12), &afternoon))
	assert.False(t, resolver.IsAvailable(c, until, &afternoon), "repeat_until is inclusive")
	assert.True(t, resolver.IsAvailable(c, day(2025, time.March, 26), &afternoon))
	assert.True(t, resolver.IsAvailable(c, day(2025, time.March, 12), &morning))
}

func TestAvailabilityIgnoresClockComponent(t *testing.T) {
	resolver := NewAvailabilityResolver(nil)
	stored := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	c := models.Candidate{ID: "c1", Exceptions: []models.UnavailabilityException{allDay("e1", stored)}}

	assert.False(t, resolver.IsAvailable(c, time.Date(2025, time.March, 12, 16, 30, 0, 0, time.UTC), nil))
}
