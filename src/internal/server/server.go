package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"ticketing-admin-svc/src/clients"
	"ticketing-admin-svc/src/internal/config"
	"ticketing-admin-svc/src/internal/dependency"
	"ticketing-admin-svc/src/internal/middleware"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

const shutdownTimeout = 15 * time.Second

type Server struct {
	cfg     *config.Configuration
	closers []func() error
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects backing services, serves HTTP and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	defer s.close()

	deps, err := s.connect()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Database.Timeout)*time.Second)
	if err := deps.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Some indexes could not be created")
	}
	cancel()

	SetupRoutes(deps)

	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      deps.Router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", s.cfg.Server.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func (s *Server) connect() (*dependency.Manager, error) {
	mongodb, err := clients.NewMongoDB(&s.cfg.Database)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return mongodb.Close(ctx)
	})

	redisClient, err := clients.NewRedisClient(&s.cfg.Redis)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, redisClient.Close)

	var rabbitMQ *clients.RabbitMQ
	var kafka *clients.KafkaProducer

	switch s.cfg.Audit.Publisher {
	case dependency.PublisherRabbitMQ:
		rabbitMQ, err = clients.NewRabbitMQ(&s.cfg.Queue.RabbitMQ)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rabbitMQ.Close)
		if err := rabbitMQ.SetupExchange(); err != nil {
			return nil, err
		}
	case dependency.PublisherKafka:
		kafka, err = clients.NewKafkaProducer(&s.cfg.Kafka)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, kafka.Close)
	}

	router, err := newRouter(&s.cfg.Server)
	if err != nil {
		return nil, err
	}

	return dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, kafka, s.cfg)
}

// newRouter builds the engine. Only the configured proxies may set the client
// IP through forwarding headers; the login limiter and audit log key on it.
func newRouter(cfg *config.ServerSettings) (*gin.Engine, error) {
	gin.SetMode(cfg.Mode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestLogger())
	return router, nil
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.WithError(err).Warn("Error while closing client")
		}
	}
}
