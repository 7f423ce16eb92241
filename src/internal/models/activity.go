package models

import "time"

// AuditMessage is the broker payload for a recorded audit entry.
type AuditMessage struct {
	ID          string            `json:"id"`
	ActorID     string            `json:"actor_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	TargetID    *string           `json:"target_id,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Audit action constants
const (
	ActionSupportSessionStart  = "support_session_start"
	ActionSupportSessionSwitch = "support_session_switch"
	ActionSupportSessionEnd    = "support_session_end"
	ActionLogin                = "login"
	ActionLogout               = "logout"
)

// Service name constants
const (
	ServiceAdminSupport = "admin.support.venue"
	ServiceAdminAuth    = "admin.auth"
)

// Role constants
const (
	RoleAdmin = "admin"
	RoleVenue = "venue"
)
