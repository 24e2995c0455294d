package service

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/subcover-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func prefs(grades, subjects, sites []int64) models.PreferenceSet {
	return models.PreferenceSet{
		Grades:   models.NewIDSet(grades...),
		Subjects: models.NewIDSet(subjects...),
		Sites:    models.NewIDSet(sites...),
	}
}

func ids(v ...int64) []int64 { return v }

func allDay(id string, date time.Time) models.UnavailabilityException {
	return models.UnavailabilityException{ID: id, Date: date, AllDay: true}
}

func partial(id string, date time.Time, rng string) models.UnavailabilityException {
	return models.UnavailabilityException{ID: id, Date: date, TimeRange: ptr(rng)}
}

func weekly(exc models.UnavailabilityException, weekday string, until *time.Time) models.UnavailabilityException {
	exc.RepeatPattern = ptr(weekday)
	exc.RepeatUntil = until
	return exc
}

func jsonMarshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func jsonUnmarshal(raw []byte, dest interface{}) error { return json.Unmarshal(raw, dest) }
