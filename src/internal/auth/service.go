package auth

import (
	"context"
	"errors"
	"ticketing-admin-svc/src/internal/audit"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/ratelimit"
	"ticketing-admin-svc/src/internal/session"
	"ticketing-admin-svc/src/internal/user"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const loginKeyPrefix = "login:"

type Service interface {
	Login(ctx context.Context, req *LoginRequest, ip, userAgent string) (*LoginResponse, error)
	Logout(ctx context.Context, userID, sessionID, ip, userAgent string) error
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, ip string) error
	RecordLoginFailure(ctx context.Context, id primitive.ObjectID) error
}

type SessionStore interface {
	Create(ctx context.Context, session *session.Session) error
	Revoke(ctx context.Context, sessionID string) error
}

type SessionCache interface {
	CacheActiveSession(ctx context.Context, session *session.Session) error
	DeleteActiveSession(ctx context.Context, userID, sessionID string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Entry) error
}

type authService struct {
	users      UserStore
	sessions   SessionStore
	cache      SessionCache
	audit      AuditRecorder
	limiter    ratelimit.Limiter
	tokens     *Tokens
	policy     ratelimit.Policy
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(
	cfg *config.Configuration,
	users UserStore,
	sessions SessionStore,
	cache SessionCache,
	recorder AuditRecorder,
	limiter ratelimit.Limiter,
	tokens *Tokens,
) Service {
	return &authService{
		users:    users,
		sessions: sessions,
		cache:    cache,
		audit:    recorder,
		limiter:  limiter,
		tokens:   tokens,
		policy: ratelimit.Policy{
			Limit:  cfg.RateLimit.LoginAttempts,
			Window: time.Duration(cfg.RateLimit.LoginWindowMin) * time.Minute,
		},
		sessionTTL: time.Duration(cfg.Security.SessionTTLHours) * time.Hour,
		now:        time.Now,
	}
}

// Login counts every attempt against the caller's IP before touching credentials.
// A successful login gives its attempt back.
func (s *authService) Login(ctx context.Context, req *LoginRequest, ip, userAgent string) (*LoginResponse, error) {
	identifier := loginKeyPrefix + ip

	result, err := s.limiter.Check(ctx, identifier, s.policy)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		logrus.WithFields(logrus.Fields{
			"ip":       ip,
			"reset_at": result.ResetAt,
		}).Warn("Login rate limited")
		return nil, &models.RateLimitedError{
			Limit:     result.Limit,
			Remaining: result.Remaining,
			ResetAt:   result.ResetAt,
		}
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			logrus.WithField("ip", ip).Info("Login attempt for unknown email")
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		if recErr := s.users.RecordLoginFailure(ctx, u.ID); recErr != nil {
			logrus.WithError(recErr).WithField("user_id", u.ID.Hex()).Warn("Failed to record login failure")
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   u.ID.Hex(),
			"ip":        ip,
			"remaining": result.Remaining,
		}).Info("Login failed: wrong password")
		return nil, models.ErrInvalidCredentials
	}

	if !u.IsActive() {
		logrus.WithFields(logrus.Fields{
			"user_id": u.ID.Hex(),
			"status":  u.Status,
		}).Warn("Login attempt for inactive user")
		return nil, models.ErrInvalidCredentials
	}
	if u.Role != models.RoleAdmin {
		logrus.WithFields(logrus.Fields{
			"user_id": u.ID.Hex(),
			"role":    u.Role,
		}).Warn("Non-admin user attempted admin login")
		return nil, models.ErrUnauthorized
	}

	if err := s.limiter.Decrement(ctx, identifier); err != nil {
		logrus.WithError(err).WithField("ip", ip).Warn("Failed to release login attempt")
	}

	now := s.now().UTC()
	sess := &session.Session{
		SessionID:    uuid.NewString(),
		UserID:       u.ID.Hex(),
		IsActive:     true,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.cache.CacheActiveSession(ctx, sess); err != nil {
		logrus.WithError(err).WithField("session_id", sess.SessionID).Warn("Failed to cache new session")
	}

	token, expiresAt, err := s.tokens.Issue(sess.UserID, sess.SessionID, u.Email, u.Role)
	if err != nil {
		logrus.WithError(err).WithField("user_id", sess.UserID).Error("Failed to sign access token")
		return nil, err
	}

	if err := s.users.RecordLoginSuccess(ctx, u.ID, ip); err != nil {
		logrus.WithError(err).WithField("user_id", sess.UserID).Warn("Failed to record login")
	}
	s.record(ctx, sess.UserID, models.ActionLogin, sess.SessionID, ip, userAgent)

	logrus.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"session_id": sess.SessionID,
	}).Info("User logged in")

	u.LastLoginAt = &now
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		ExpiresAt:   expiresAt,
		SessionID:   sess.SessionID,
		User:        u.ToProfile(),
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID, sessionID, ip, userAgent string) error {
	if userID == "" || sessionID == "" {
		return models.ErrSessionInactive
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	if err := s.cache.DeleteActiveSession(ctx, userID, sessionID); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to drop cached session")
	}

	s.record(ctx, userID, models.ActionLogout, sessionID, ip, userAgent)

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
	}).Info("User logged out")
	return nil
}

// record writes login/logout entries. Failures are logged only.
func (s *authService) record(ctx context.Context, userID, action, sessionID, ip, userAgent string) {
	entry := &audit.Entry{
		ActorID:   userID,
		Action:    action,
		Metadata:  map[string]string{"sessionId": sessionID},
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Error("Failed to record auth audit entry")
	}
}
