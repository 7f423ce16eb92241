package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"ticketing-admin-svc/src/internal/auth"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/response"
	"ticketing-admin-svc/src/internal/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionCache is the Redis side of session validation.
type SessionCache interface {
	GetActiveSession(ctx context.Context, userID, sessionID string) (*session.Session, error)
	UpdateSessionActivity(ctx context.Context, userID, sessionID string) error
	CacheActiveSession(ctx context.Context, session *session.Session) error
}

type SessionStore interface {
	GetByID(ctx context.Context, sessionID string) (*session.Session, error)
	UpdateActivity(ctx context.Context, sessionID string) error
}

// AuthMiddleware handles authentication and authorization
type AuthMiddleware struct {
	tokens      *auth.Tokens
	cache       SessionCache
	sessionRepo SessionStore
	now         func() time.Time
}

func NewAuthMiddleware(tokens *auth.Tokens, cache SessionCache, sessionRepo SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:      tokens,
		cache:       cache,
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// RequireAuth validates JWT token and session
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Authorization token is required")
			c.Abort()
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			logrus.WithError(err).Warn("JWT token validation failed")
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			c.Abort()
			return
		}

		valid, err := m.validateSession(c.Request.Context(), claims.UserID, claims.SessionID)
		if err != nil {
			logrus.WithError(err).Error("Session validation failed")
			response.Fail(c, http.StatusInternalServerError, "Internal server error", "Session validation error")
			c.Abort()
			return
		}

		if !valid {
			logrus.WithField("session_id", claims.SessionID).Warn("Session is invalid or expired")
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Session expired - please login again")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		logrus.WithFields(logrus.Fields{
			"user_id":    claims.UserID,
			"session_id": claims.SessionID,
			"user_role":  claims.Role,
		}).Debug("User authenticated successfully")

		c.Next()
	}
}

// RequireAdminRights checks if user has admin privileges
func (m *AuthMiddleware) RequireAdminRights() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			logrus.Error("User role not found in context - ensure RequireAuth middleware runs first")
			response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			c.Abort()
			return
		}

		if userRole, _ := role.(string); userRole != models.RoleAdmin {
			logrus.WithFields(logrus.Fields{
				"user_id":    c.GetString("user_id"),
				"user_role":  role,
				"route_name": c.GetString("route_name"),
			}).Warn("User attempted to access admin endpoint without admin privileges")

			response.Fail(c, http.StatusForbidden, "Forbidden", "Access forbidden - admin privileges required")
			c.Abort()
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		logrus.Debug("Authorization header missing")
		return ""
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		logrus.Warn("Invalid authorization header format")
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// validateSession checks Redis first and falls back to MongoDB, re-caching on a hit.
func (m *AuthMiddleware) validateSession(ctx context.Context, userID, sessionID string) (bool, error) {
	cached, err := m.cache.GetActiveSession(ctx, userID, sessionID)
	if err == nil && cached != nil && cached.IsValidAt(m.now()) {
		m.touch(ctx, userID, sessionID, true)
		return true, nil
	}

	s, err := m.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.UserID != userID {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"user_id":    userID,
		}).Warn("Session does not belong to token subject")
		return false, nil
	}

	if !s.IsValidAt(m.now()) {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"is_active":  s.IsActive,
			"expires_at": s.ExpiresAt,
		}).Warn("Session is not active")
		return false, nil
	}

	s.LastActiveAt = m.now().UTC()
	m.touch(ctx, userID, sessionID, false)
	if err := m.cache.CacheActiveSession(ctx, s); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to cache session")
	}

	logrus.WithField("session_id", sessionID).Debug("Session validated from MongoDB")
	return true, nil
}

func (m *AuthMiddleware) touch(ctx context.Context, userID, sessionID string, cached bool) {
	if cached {
		if err := m.cache.UpdateSessionActivity(ctx, userID, sessionID); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to update cached session activity")
		}
	}
	if err := m.sessionRepo.UpdateActivity(ctx, sessionID); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to update session activity")
	}
}
