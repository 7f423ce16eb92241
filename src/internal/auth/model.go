package auth

import (
	"ticketing-admin-svc/src/internal/user"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	TokenType   string        `json:"tokenType"`
	ExpiresIn   int64         `json:"expiresIn"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	SessionID   string        `json:"sessionId"`
	User        *user.Profile `json:"user"`
}
