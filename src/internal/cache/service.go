package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/models"
	"ticketing-admin-svc/src/internal/session"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const sessionKeyPattern = "session:%s:%s" // session:userID:sessionID

type Service interface {
	GetActiveSession(ctx context.Context, userID, sessionID string) (*session.Session, error)
	UpdateSessionActivity(ctx context.Context, userID, sessionID string) error
	CacheActiveSession(ctx context.Context, session *session.Session) error
	DeleteActiveSession(ctx context.Context, userID, sessionID string) error
}

type cacheService struct {
	client redis.Cmdable
	cfg    *config.CacheConfig
	now    func() time.Time
}

func NewCacheService(client redis.Cmdable, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
		now:    time.Now,
	}
}

func SessionKey(userID, sessionID string) string {
	return fmt.Sprintf(sessionKeyPattern, userID, sessionID)
}

func (c *cacheService) GetActiveSession(ctx context.Context, userID, sessionID string) (*session.Session, error) {
	key := SessionKey(userID, sessionID)
	logrus.WithField("key", key).Debug("Getting active session from cache")

	var s session.Session
	found, err := c.getJSON(ctx, key, &s)
	if err != nil || !found {
		return nil, err
	}

	logrus.WithField("key", key).Debug("Session retrieved from cache successfully")
	return &s, nil
}

// UpdateSessionActivity touches the cached session and slides its TTL.
func (c *cacheService) UpdateSessionActivity(ctx context.Context, userID, sessionID string) error {
	s, err := c.GetActiveSession(ctx, userID, sessionID)
	if err != nil || s == nil {
		return err
	}

	s.LastActiveAt = c.now().UTC()
	return c.CacheActiveSession(ctx, s)
}

func (c *cacheService) CacheActiveSession(ctx context.Context, s *session.Session) error {
	ttl := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	if until := s.ExpiresAt.Sub(c.now()); until < ttl {
		ttl = until
	}
	if ttl <= 0 {
		logrus.WithField("session_id", s.SessionID).Warn("Session already expired, not caching")
		return nil
	}

	if err := c.setJSON(ctx, SessionKey(s.UserID, s.SessionID), s, ttl); err != nil {
		logrus.WithError(err).WithField("session_id", s.SessionID).Error("Failed to cache session")
		return err
	}

	logrus.WithField("session_id", s.SessionID).Debug("Session cached successfully")
	return nil
}

func (c *cacheService) DeleteActiveSession(ctx context.Context, userID, sessionID string) error {
	if err := c.client.Del(ctx, SessionKey(userID, sessionID)).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session from cache")
		return models.ErrRedisDelete
	}
	return nil
}

// getJSON reports found=false without error on a cache miss.
func (c *cacheService) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Key not found in cache")
			return false, nil
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to read from cache")
		return false, models.ErrRedisGet
	}

	if err := json.Unmarshal(data, dst); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal cached value")
		return false, models.ErrRedisGet
	}
	return true, nil
}

func (c *cacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to marshal value for cache")
		return models.ErrRedisSet
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to write to cache")
		return models.ErrRedisSet
	}
	return nil
}
