package audit

import (
	"ticketing-admin-svc/src/internal/models"
	"time"
)

// Entry is an append-only record of a security-relevant action.
type Entry struct {
	ID        string            `json:"id" bson:"_id"`
	ActorID   string            `json:"actorId" bson:"actor_id"`
	Action    string            `json:"action" bson:"action"`
	TargetID  *string           `json:"targetId" bson:"target_id"`
	Metadata  map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	IPAddress string            `json:"ipAddress" bson:"ip_address"`
	UserAgent string            `json:"userAgent" bson:"user_agent"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
}

type Filter struct {
	UserID    string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type Page struct {
	Entries []*Entry `json:"entries"`
	Total   int64    `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	HasMore bool     `json:"hasMore"`
}

func (e *Entry) toMessage(serviceName string) models.AuditMessage {
	return models.AuditMessage{
		ID:          e.ID,
		ActorID:     e.ActorID,
		ServiceName: serviceName,
		Action:      e.Action,
		TargetID:    e.TargetID,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		Metadata:    e.Metadata,
		Timestamp:   e.Timestamp,
	}
}

// serviceFor names the emitting component of an action on the broker.
func serviceFor(action string) string {
	switch action {
	case models.ActionLogin, models.ActionLogout:
		return models.ServiceAdminAuth
	default:
		return models.ServiceAdminSupport
	}
}
