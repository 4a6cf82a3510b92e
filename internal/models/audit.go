package models

import "time"

// Audit actions recorded for staff activity.
const (
	AuditActionLogin         = "LOGIN"
	AuditActionStudentCreate = "STUDENT_CREATE"
	AuditActionPhotoUpload   = "STUDENT_PHOTO_UPLOAD"
	AuditActionFeesApply     = "FEES_APPLY"
	AuditActionRegisterEntry = "REGISTER_ENTRY"
	AuditActionPlanWrite     = "FEE_PLAN_WRITE"
	AuditActionHeadingWrite  = "FEE_HEADING_WRITE"
	AuditActionRouteWrite    = "ROUTE_WRITE"
	AuditActionUserCreate    = "USER_CREATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
