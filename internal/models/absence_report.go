package models

import "time"

// AbsenceReportJob is queued after a successful accept.
type AbsenceReportJob struct {
	Token       string `json:"token"`
	CandidateID string `json:"candidate_id"`
}

// Absence form reason boxes.
const (
	FormReasonIllness  = "Illness"
	FormReasonMedical  = "Medical"
	FormReasonPersonal = "Personal"
	FormReasonOther    = "Other"
)

// AbsenceReportFields are the values rendered onto the absence form.
type AbsenceReportFields struct {
	EmployeeName   string
	DateAbsent     string
	TotalDays      string
	TotalHours     string
	HoursOrDays    string
	SiteCodes      []string
	Reasons        map[string]bool
	SubstituteName string
}

// AbsenceReport describes a generated artifact and its download link.
type AbsenceReport struct {
	Token     string    `json:"token"`
	Path      string    `json:"-"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
