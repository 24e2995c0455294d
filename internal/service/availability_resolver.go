package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/internal/models"
	"github.com/noah-isme/subcover-api/pkg/timerange"
)

// AvailabilityResolver decides whether a candidate is free on a date and,
// optionally, within a time range. It never returns an error: anything it
// cannot interpret counts as unavailable.
type AvailabilityResolver struct {
	logger *zap.Logger
}

// NewAvailabilityResolver builds the resolver.
func NewAvailabilityResolver(logger *zap.Logger) *AvailabilityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityResolver{logger: logger}
}

// IsAvailable checks direct-date exceptions first, then weekly recurring ones.
func (r *AvailabilityResolver) IsAvailable(candidate models.Candidate, date time.Time, requested *timerange.TimeRange) bool {
	day := timerange.Day(date)

	for _, exc := range candidate.Exceptions {
		if timerange.SameDay(exc.Date, day) && r.blocks(candidate.ID, exc, requested) {
			return false
		}
	}

	for _, exc := range candidate.Exceptions {
		if recursOn(exc, day) && r.blocks(candidate.ID, exc, requested) {
			return false
		}
	}

	return true
}

// IsAvailableText is IsAvailable for a textual requested range. A range that
// does not parse makes the candidate unavailable.
func (r *AvailabilityResolver) IsAvailableText(candidate models.Candidate, date time.Time, requested string) bool {
	if requested == "" {
		return r.IsAvailable(candidate, date, nil)
	}
	rng, err := timerange.Parse(requested)
	if err != nil {
		r.logger.Warn("requested time range unparseable, treating candidate as unavailable",
			zap.String("candidate_id", candidate.ID),
			zap.String("time_range", requested),
			zap.Error(err))
		return false
	}
	return r.IsAvailable(candidate, date, &rng)
}

func (r *AvailabilityResolver) blocks(candidateID string, exc models.UnavailabilityException, requested *timerange.TimeRange) bool {
	if exc.AllDay {
		return true
	}
	if requested == nil || exc.TimeRange == nil || *exc.TimeRange == "" {
		return false
	}

	own, err := timerange.Parse(*exc.TimeRange)
	if err != nil {
		r.logger.Warn("unavailability time range unparseable, failing closed",
			zap.String("candidate_id", candidateID),
			zap.String("exception_id", exc.ID),
			zap.String("time_range", *exc.TimeRange),
			zap.Error(err))
		return true
	}
	return own.Overlaps(*requested)
}

// recursOn reports whether a weekly exception applies to day: same weekday,
// on or after the anchor, on or before repeat_until when set.
func recursOn(exc models.UnavailabilityException, day time.Time) bool {
	if !exc.Recurring() {
		return false
	}
	weekday, ok := timerange.ParseWeekday(*exc.RepeatPattern)
	if !ok || weekday != day.Weekday() {
		return false
	}
	if day.Before(timerange.Day(exc.Date)) {
		return false
	}
	if exc.RepeatUntil != nil && day.After(timerange.Day(*exc.RepeatUntil)) {
		return false
	}
	return true
}
