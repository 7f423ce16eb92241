package session

import "time"

// Session is an admin login session backing an access token.
type Session struct {
	SessionID    string     `json:"sessionId" bson:"session_id"`
	UserID       string     `json:"userId" bson:"user_id"`
	IsActive     bool       `json:"isActive" bson:"is_active"`
	IPAddress    string     `json:"ipAddress,omitempty" bson:"ip_address,omitempty"`
	UserAgent    string     `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	ExpiresAt    time.Time  `json:"expiresAt" bson:"expires_at"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at"`
	LogoutAt     *time.Time `json:"logoutAt,omitempty" bson:"logout_at,omitempty"`
	LastActiveAt time.Time  `json:"lastActiveAt" bson:"last_active_at"`
}

// IsValidAt reports whether the session can still authenticate requests at t.
func (s *Session) IsValidAt(t time.Time) bool {
	return s.IsActive && s.LogoutAt == nil && t.Before(s.ExpiresAt)
}
