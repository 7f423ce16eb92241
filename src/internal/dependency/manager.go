package dependency

import (
	"context"
	"errors"
	"fmt"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/audit"
	"ticketing-admin-svc/src/internal/auth"
	"ticketing-admin-svc/src/internal/cache"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/ratelimit"
	"ticketing-admin-svc/src/internal/session"
	"ticketing-admin-svc/src/internal/support"
	"ticketing-admin-svc/src/internal/user"
	"ticketing-admin-svc/src/internal/venue"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	PublisherRabbitMQ = "rabbitmq"
	PublisherKafka    = "kafka"
	PublisherNone     = "none"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

type Manager struct {
	Router   *gin.Engine
	Config   *config.Configuration
	Mongodb  *clients.MongoDB
	Redis    *clients.RedisClient
	RabbitMQ *clients.RabbitMQ
	Kafka    *clients.KafkaProducer

	CacheService   cache.Service
	Limiter        ratelimit.Limiter
	Tokens         *auth.Tokens
	SessionRepo    session.Repository
	AuditService   audit.Service
	AuditHandler   audit.Handler
	SupportService support.Service
	SupportHandler support.Handler
	VenueHandler   venue.Handler
	AuthService    auth.Service
	AuthHandler    auth.Handler

	indexers []indexer
}

// NewDependencyManager wires repositories, services and handlers. rabbitMQ and
// kafka may be nil when the audit publisher does not use them.
func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	kafka *clients.KafkaProducer,
	cfg *config.Configuration) (*Manager, error) {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)

	limiter, err := newLimiter(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg, rabbitMQ, kafka)
	if err != nil {
		return nil, err
	}

	collections := cfg.Database.Collections
	userRepo := user.NewUserRepository(mongodb, collections.Users)
	sessionRepo := session.NewSessionRepository(mongodb, collections.Sessions)
	venueRepo := venue.NewRepository(mongodb, collections.Venues)
	supportRepo := support.NewRepository(mongodb, collections.SupportSessions)
	auditRepo := audit.NewRepository(mongodb, collections.AuditLogs)

	tokens := auth.NewTokens(cfg.Security.JwtKey,
		time.Duration(cfg.Security.AccessTokenTTLMinute)*time.Minute, cfg.App.Name)

	auditService := audit.NewService(auditRepo, publisher, &cfg.Audit)
	venueService := venue.NewService(venueRepo, cfg)
	supportService := support.NewService(supportRepo, venueService, auditService)
	authService := auth.NewService(cfg, userRepo, sessionRepo, cacheService, auditService, limiter, tokens)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Kafka:          kafka,
		CacheService:   cacheService,
		Limiter:        limiter,
		Tokens:         tokens,
		SessionRepo:    sessionRepo,
		AuditService:   auditService,
		AuditHandler:   audit.NewHandler(cfg, auditService),
		SupportService: supportService,
		SupportHandler: support.NewHandler(cfg, supportService),
		VenueHandler:   venue.NewHandler(cfg, venueService),
		AuthService:    authService,
		AuthHandler:    auth.NewHandler(cfg, authService),
		indexers:       []indexer{userRepo, sessionRepo, supportRepo, auditRepo},
	}, nil
}

// EnsureIndexes creates the indexes every repository depends on, including the
// one-active-support-session-per-admin constraint.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	var errs []error
	for _, idx := range m.indexers {
		if err := idx.EnsureIndexes(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLimiter(cfg *config.Configuration, redisClient *clients.RedisClient) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case BackendRedis:
		logrus.Info("Using Redis rate limiter")
		return ratelimit.NewRedisLimiter(redisClient.Client, cfg.RateLimit.KeyPrefix), nil
	case BackendMemory, "":
		logrus.Info("Using in-memory rate limiter")
		return ratelimit.NewMemoryLimiter(ratelimit.WithMaxKeys(cfg.RateLimit.MaxKeys)), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}

func newPublisher(cfg *config.Configuration, rabbitMQ *clients.RabbitMQ, kafka *clients.KafkaProducer) (audit.Publisher, error) {
	switch cfg.Audit.Publisher {
	case PublisherRabbitMQ:
		if rabbitMQ == nil {
			return nil, errors.New("audit publisher rabbitmq selected but no connection was provided")
		}
		return rabbitMQ, nil
	case PublisherKafka:
		if kafka == nil {
			return nil, errors.New("audit publisher kafka selected but no producer was provided")
		}
		return kafka, nil
	case PublisherNone, "":
		logrus.Warn("Audit entries will not be published to a broker")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown audit publisher %q", cfg.Audit.Publisher)
	}
}
