package models

import "time"

// CoverageStatus captures the coverage request lifecycle.
type CoverageStatus string

const (
	CoverageStatusOpen   CoverageStatus = "Open"
	CoverageStatusFilled CoverageStatus = "Filled"
)

// Absence reasons accepted on a coverage request.
const (
	ReasonPersonal       = "Personal"
	ReasonMedical        = "Medical"
	ReasonSickness       = "Sickness"
	ReasonSchoolBusiness = "School Business"
	ReasonOther          = "Other"
)

// AbsenceReasons lists the accepted reasons in display order.
var AbsenceReasons = []string{ReasonSickness, ReasonMedical, ReasonPersonal, ReasonSchoolBusiness, ReasonOther}

// CoverageRequest is an open slot seeking a substitute.
type CoverageRequest struct {
	ID           string         `db:"id" json:"id"`
	Token        string         `db:"token" json:"token"`
	TenantID     int64          `db:"tenant_id" json:"tenant_id"`
	RequesterID  string         `db:"requester_id" json:"requester_id"`
	Date         time.Time      `db:"request_date" json:"date"`
	TimeRange    string         `db:"time_range" json:"time_range"`
	GradeID      *int64         `db:"grade_id" json:"grade_id,omitempty"`
	SubjectID    *int64         `db:"subject_id" json:"subject_id,omitempty"`
	SiteID       *int64         `db:"site_id" json:"site_id,omitempty"`
	Details      string         `db:"details" json:"details"`
	Reason       string         `db:"reason" json:"reason"`
	Status       CoverageStatus `db:"status" json:"status"`
	SubstituteID *string        `db:"substitute_id" json:"substitute_id,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	FilledAt     *time.Time     `db:"filled_at" json:"filled_at,omitempty"`
}

// IsOpen reports whether the request can still be accepted.
func (r CoverageRequest) IsOpen() bool {
	return r.Status == CoverageStatusOpen
}

// CreateCoverageRequest is the payload for posting a new coverage request.
type CreateCoverageRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeRange string `json:"time_range" validate:"required"`
	GradeID   int64  `json:"grade_id" validate:"required,gt=0"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	SiteID    *int64 `json:"site_id" validate:"omitempty,gt=0"`
	Details   string `json:"details" validate:"max=2000"`
	Reason    string `json:"reason" validate:"required"`
}

// CoverageRequestFilter captures list filters.
type CoverageRequestFilter struct {
	Status   *CoverageStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// DispatchSummary reports how many notification jobs were handed to the queue.
type DispatchSummary struct {
	Queued int `json:"queued"`
	Failed int `json:"failed_to_enqueue"`
}

// Add accumulates another summary.
func (s *DispatchSummary) Add(other DispatchSummary) {
	s.Queued += other.Queued
	s.Failed += other.Failed
}

// CoverageResult is returned by create and accept operations.
type CoverageResult struct {
	Request       *CoverageRequest `json:"request"`
	Notifications DispatchSummary  `json:"notifications"`
	Warnings      []string         `json:"warnings,omitempty"`
}
