package models

import "time"

// Audit actions recorded for schedule request mutations.
const (
	AuditActionRequestCreate     = "SCHEDULE_REQUEST_CREATE"
	AuditActionRequestUpdate     = "SCHEDULE_REQUEST_UPDATE"
	AuditActionRequestDelete     = "SCHEDULE_REQUEST_DELETE"
	AuditActionRequestMassCreate = "SCHEDULE_REQUEST_MASS_CREATE"
	AuditActionSchedulerRun      = "SCHEDULER_RUN"
	AuditActionEnroll            = "STUDENT_SCHEDULE_ENROLL"
	AuditActionDrop              = "STUDENT_SCHEDULE_DROP"
	AuditActionTemplateApply     = "TIMETABLE_TEMPLATE_APPLY"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   *string   `db:"school_id" json:"school_id,omitempty"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
