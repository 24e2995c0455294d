package models

import "time"

// UnavailabilityException marks a candidate unavailable on a date, optionally
// within a time range and optionally repeating weekly.
type UnavailabilityException struct {
	ID            string     `db:"id" json:"id"`
	CandidateID   string     `db:"candidate_id" json:"candidate_id"`
	Date          time.Time  `db:"exception_date" json:"date"`
	AllDay        bool       `db:"all_day" json:"all_day"`
	TimeRange     *string    `db:"time_range" json:"time_range,omitempty"`
	RepeatPattern *string    `db:"repeat_pattern" json:"repeat_pattern,omitempty"`
	RepeatUntil   *time.Time `db:"repeat_until" json:"repeat_until,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Recurring reports whether the exception repeats weekly.
func (e UnavailabilityException) Recurring() bool {
	return e.RepeatPattern != nil && *e.RepeatPattern != ""
}

// CreateUnavailabilityRequest is the payload for a new exception.
type CreateUnavailabilityRequest struct {
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	AllDay        bool    `json:"all_day"`
	TimeRange     *string `json:"time_range"`
	RepeatPattern *string `json:"repeat_pattern"`
	RepeatUntil   *string `json:"repeat_until" validate:"omitempty,datetime=2006-01-02"`
}
