package model

import "time"

// AuditEntityType names the kind of record an audit entry is about.
type AuditEntityType string

const (
	AuditEntityLeave      AuditEntityType = "leave"
	AuditEntityTransport  AuditEntityType = "transport"
	AuditEntityAttendance AuditEntityType = "attendance"
	AuditEntityResident   AuditEntityType = "resident"
	AuditEntityStaff      AuditEntityType = "staff"
)

// AuditActionType names what happened. The vocabulary is closed so that
// reporting queries can rely on it.
type AuditActionType string

const (
	AuditActionCreate     AuditActionType = "create"
	AuditActionDelete     AuditActionType = "delete"
	AuditActionApprove    AuditActionType = "approve"
	AuditActionDeny       AuditActionType = "deny"
	AuditActionCheckIn    AuditActionType = "check_in"
	AuditActionCheckOut   AuditActionType = "check_out"
	AuditActionSchedule   AuditActionType = "schedule"
	AuditActionComplete   AuditActionType = "complete"
	AuditActionCancel     AuditActionType = "cancel"
	AuditActionLogin      AuditActionType = "login"
	AuditActionLogout     AuditActionType = "logout"
	AuditActionSetActive  AuditActionType = "set_active"
	AuditActionCodeIssued AuditActionType = "code_issued"
	AuditActionSMSSent    AuditActionType = "sms_sent"
	AuditActionSMSFailed  AuditActionType = "sms_failed"
	AuditActionConsent    AuditActionType = "consent"
)

// AuditEntry is one append-only row in the audit trail. The core only
// ever writes these; reading is a reporting concern outside this service.
type AuditEntry struct {
	ID         int64
	EntityType AuditEntityType
	// EntityID is nil when the action is not about a single row (for
	// example a failed login by unknown username).
	EntityID *int64
	// Shelter is nil for global actions such as staff login.
	Shelter *string
	// StaffUserID is nil for resident- and kiosk-originated actions.
	StaffUserID *int64
	ActionType  AuditActionType
	Details     string
	CreatedAt   time.Time
}
