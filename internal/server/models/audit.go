package models

import (
	"encoding/json"
	"time"
)

// AuditAction names a privileged operation recorded in the audit log.
type AuditAction string

const (
	ActionUserBlock         AuditAction = "USER_BLOCK"
	ActionUserUnblock       AuditAction = "USER_UNBLOCK"
	ActionUserKick          AuditAction = "USER_KICK"
	ActionUserPasswordReset AuditAction = "USER_PASSWORD_RESET"
	ActionUserRoleChange    AuditAction = "USER_ROLE_CHANGE"
	ActionMaintenanceOn     AuditAction = "MAINTENANCE_ON"
	ActionMaintenanceOff    AuditAction = "MAINTENANCE_OFF"
	ActionUsersLogoutAll    AuditAction = "USERS_LOGOUT_ALL"
	ActionNoticeOn          AuditAction = "NOTICE_ON"
	ActionNoticeOff         AuditAction = "NOTICE_OFF"
)

// AuditRecord is one append-only audit log entry.
type AuditRecord struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actor_id"`
	ActorEmail string          `json:"actor_email"`
	Action     AuditAction     `json:"action"`
	TargetID   string          `json:"target_id,omitempty"`
	Target     string          `json:"target,omitempty"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	IP         string          `json:"ip,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditFilter narrows an audit listing. Query matches actor email, target,
// action and meta text; Action is an exact match.
type AuditFilter struct {
	Query  string
	Action string
	Since  time.Time
	Take   int
}
