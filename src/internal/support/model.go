package support

import (
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/venue"
	"time"
)

// Session is an admin's temporary access to one venue's data. At most one
// active session exists per admin; once ended it is never modified.
type Session struct {
	ID        string     `json:"id" bson:"_id"`
	AdminID   string     `json:"adminId" bson:"admin_id"`
	VenueID   string     `json:"venueId" bson:"venue_id"`
	Active    bool       `json:"active" bson:"active"`
	StartedAt time.Time  `json:"startedAt" bson:"started_at"`
	EndedAt   *time.Time `json:"endedAt" bson:"ended_at"`
	IPAddress string     `json:"ipAddress" bson:"ip_address"`
	UserAgent string     `json:"userAgent" bson:"user_agent"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// Actor is the caller as established by the auth middleware.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.UserID != "" && a.Role == models.RoleAdmin
}

// Access describes what the current session grants.
type Access struct {
	Session       *Session       `json:"session"`
	Venue         *venue.Summary `json:"venue"`
	ActiveSeconds int64          `json:"activeSeconds"`
}

type StartRequest struct {
	VenueID string `json:"venueId" binding:"required"`
}

type SwitchRequest struct {
	UserID  string `json:"userId"`
	VenueID string `json:"venueId" binding:"required"`
}
