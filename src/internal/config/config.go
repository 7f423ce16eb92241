package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

type Configuration struct {
	Logs      LogsSettings     `mapstructure:"logs"`
	App       Application      `mapstructure:"app"`
	Database  Database         `mapstructure:"database"`
	Queue     QueueConfig      `mapstructure:"queue"`
	Kafka     KafkaConfig      `mapstructure:"kafka"`
	Redis     Redis            `mapstructure:"redis"`
	Security  SecuritySettings `mapstructure:"security"`
	Server    ServerSettings   `mapstructure:"server"`
	Search    SearchConfig     `mapstructure:"search"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Audit     AuditConfig      `mapstructure:"audit"`
	RateLimit RateLimitConfig  `mapstructure:"rate-limit"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url         string      `mapstructure:"url"`
	DbName      string      `mapstructure:"dbname"`
	Collections Collections `mapstructure:"collections"`
	Timeout     int         `mapstructure:"timeout"`
}

type Collections struct {
	Users           string `mapstructure:"users"`
	Sessions        string `mapstructure:"sessions"`
	Venues          string `mapstructure:"venues"`
	SupportSessions string `mapstructure:"support-sessions"`
	AuditLogs       string `mapstructure:"audit-logs"`
}

type SearchConfig struct {
	MinQueryLimit int `mapstructure:"min-query-limit"`
	MaxQueryLimit int `mapstructure:"max-query-limit"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	BatchTimeout int      `mapstructure:"batch-timeout-ms"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey               string `mapstructure:"jwt-key"`
	AccessTokenTTLMinute int    `mapstructure:"access-token-ttl-minutes"`
	SessionTTLHours      int    `mapstructure:"session-ttl-hours"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
	// TrustedProxies lists the proxy CIDRs whose X-Forwarded-For is honored.
	// Empty means the client IP is always the TCP peer address.
	TrustedProxies []string `mapstructure:"trusted-proxies"`
}

type CacheConfig struct {
	SessionExpirationMinutes int `mapstructure:"session-expiration-minutes"`
}

// AuditConfig selects where recorded audit entries are fanned out to.
type AuditConfig struct {
	Publisher    string `mapstructure:"publisher"` // rabbitmq, kafka or none
	DefaultLimit int    `mapstructure:"default-limit"`
	MaxLimit     int    `mapstructure:"max-limit"`
}

type RateLimitConfig struct {
	Backend        string `mapstructure:"backend"` // memory or redis
	LoginAttempts  int    `mapstructure:"login-attempts"`
	LoginWindowMin int    `mapstructure:"login-window-minutes"`
	MaxKeys        int    `mapstructure:"max-keys"`
	KeyPrefix      string `mapstructure:"key-prefix"`
}

func Load() *Configuration {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		logrus.WithError(err).Panic("Error reading config file")
	}
	logrus.Info("Configuration loaded")

	return cfg
}

// LoadFrom reads the yaml file at path and applies environment overrides.
func LoadFrom(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Configuration) {
	if mongoUri := os.Getenv("MONGODB_URL"); mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DbName = dbName
	}

	if redisUrl := os.Getenv("REDIS_URL"); redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	if rabbitmqUrl := os.Getenv("RABBITMQ_URL"); rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}

	if jwtKey := os.Getenv("JWT_KEY"); jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	if backend := os.Getenv("RATE_LIMIT_BACKEND"); backend != "" {
		cfg.RateLimit.Backend = backend
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.App.Timeout <= 0 {
		cfg.App.Timeout = 10
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Audit.DefaultLimit <= 0 {
		cfg.Audit.DefaultLimit = 100
	}
	if cfg.Audit.MaxLimit <= 0 {
		cfg.Audit.MaxLimit = 500
	}
	if cfg.Audit.Publisher == "" {
		cfg.Audit.Publisher = "rabbitmq"
	}
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.LoginAttempts <= 0 {
		cfg.RateLimit.LoginAttempts = 5
	}
	if cfg.RateLimit.LoginWindowMin <= 0 {
		cfg.RateLimit.LoginWindowMin = 15
	}
	if cfg.Security.AccessTokenTTLMinute <= 0 {
		cfg.Security.AccessTokenTTLMinute = 60
	}
	if cfg.Security.SessionTTLHours <= 0 {
		cfg.Security.SessionTTLHours = 24
	}
	if cfg.Cache.SessionExpirationMinutes <= 0 {
		cfg.Cache.SessionExpirationMinutes = 30
	}
	if cfg.Search.MinQueryLimit <= 0 {
		cfg.Search.MinQueryLimit = 20
	}
	if cfg.Search.MaxQueryLimit <= 0 {
		cfg.Search.MaxQueryLimit = 100
	}
}
