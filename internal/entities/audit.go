package entities

import "time"

type AuditAction string

const (
	AuditActionSignup         AuditAction = "signup"
	AuditActionLogin          AuditAction = "login"
	AuditActionLogout         AuditAction = "logout"
	AuditActionLogoutAll      AuditAction = "logout_all"
	AuditActionResetRequested AuditAction = "password_reset_requested"
	AuditActionPasswordReset  AuditAction = "password_reset"
	AuditActionRoleDenied     AuditAction = "role_denied"
	AuditActionRoleChanged    AuditAction = "role_changed"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    string      `gorm:"index;size:36" json:"user_id,omitempty"` // empty when the actor is unknown
	Action    AuditAction `gorm:"index;size:50" json:"action"`
	IPAddress string      `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string      `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuditStatus `gorm:"size:20" json:"status"`
	Detail    string      `gorm:"size:500" json:"detail,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
