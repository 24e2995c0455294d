package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionCoverageCreate       = "COVERAGE_CREATE"
	AuditActionCoverageAccept       = "COVERAGE_ACCEPT"
	AuditActionUnavailabilityCreate = "UNAVAILABILITY_CREATE"
	AuditActionUnavailabilityDelete = "UNAVAILABILITY_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	TenantID   *int64    `db:"tenant_id" json:"tenant_id,omitempty"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
