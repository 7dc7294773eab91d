package models

import "time"

// Audited actions.
const (
	AuditActionStudentCreate       = "STUDENT_CREATE"
	AuditActionStudentUpdate       = "STUDENT_UPDATE"
	AuditActionStudentStatus       = "STUDENT_STATUS"
	AuditActionStudentEnroll       = "STUDENT_ENROLL"
	AuditActionParentAccount       = "PARENT_ACCOUNT"
	AuditActionStaffCreate         = "STAFF_CREATE"
	AuditActionStaffUpdate         = "STAFF_UPDATE"
	AuditActionStaffToggle         = "STAFF_TOGGLE_STATUS"
	AuditActionScoresSave          = "SCORES_SAVE"
	AuditActionReportsGenerate     = "REPORTS_GENERATE"
	AuditActionReportsPublish      = "REPORTS_PUBLISH"
	AuditActionInvoicesGenerate    = "INVOICES_GENERATE"
	AuditActionPaymentRecord       = "PAYMENT_RECORD"
	AuditActionAttendanceRecord    = "ATTENDANCE_RECORD"
	AuditActionPasswordChange      = "PASSWORD_CHANGE"
	AuditActionClassSubjectsAssign = "CLASS_SUBJECTS_ASSIGN"
)

// AuditLog is one entry of the audit trail.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   *string   `db:"school_id" json:"school_id,omitempty"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
