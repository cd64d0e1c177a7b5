// Package config loads storefront settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service  string `yaml:"service"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`

	HTTP    HTTPConfig    `yaml:"http"`
	Ops     OpsConfig     `yaml:"ops"`
	Backend BackendConfig `yaml:"backend"`
	Storage StorageConfig `yaml:"storage"`
	Support SupportConfig `yaml:"support"`
	Session SessionConfig `yaml:"session"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	MaxImageSize       int64         `yaml:"max_image_size"`
	// PublicURL is where the browser reaches the storefront; payment
	// providers redirect back to it.
	PublicURL string `yaml:"public_url"`
}

type OpsConfig struct {
	GRPCPort string `yaml:"grpc_port"`
}

type BackendConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	RateBurst int           `yaml:"rate_burst"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`

	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	SQLDSN string `yaml:"sql_dsn"`
}

type SupportConfig struct {
	CallTimeout time.Duration `yaml:"call_timeout"`
	ReplyDelay  time.Duration `yaml:"reply_delay"`
}

// SessionConfig bounds how long an untouched profile stays in memory.
// Zero keeps profiles until restart.
type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// KafkaConfig enables the order-events consumer when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
	// InstanceID suffixes the group so every instance sees every event.
	// Empty uses the hostname.
	InstanceID string `yaml:"instance_id"`
}

func Default() *Config {
	return &Config{
		Service:  "storefront",
		Env:      "production",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
			MaxImageSize:       5 << 20, // 5MB
			PublicURL:          "http://localhost:8080",
		},
		Ops: OpsConfig{
			GRPCPort: "9090",
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:5000",
			Timeout:   15 * time.Second,
			RateLimit: 20,
			RateBurst: 40,
			Breaker: BreakerConfig{
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Storage: StorageConfig{
			Driver:        "memory",
			RedisAddr:     "localhost:6379",
			RedisTTL:      30 * 24 * time.Hour,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "storefront",
		},
		Support: SupportConfig{
			CallTimeout: 20 * time.Second,
		},
		Session: SessionConfig{
			IdleTimeout: 2 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:   "order-events",
			GroupID: "storefront",
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.HTTP.PublicURL = getEnv("PUBLIC_URL", c.HTTP.PublicURL)
	c.HTTP.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.HTTP.RequestTimeout, &errs)
	c.Ops.GRPCPort = getEnv("OPS_GRPC_PORT", c.Ops.GRPCPort)

	c.Backend.BaseURL = getEnv("BACKEND_URL", c.Backend.BaseURL)
	c.Backend.Timeout = getEnvDuration("BACKEND_TIMEOUT", c.Backend.Timeout, &errs)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvInt("REDIS_DB", c.Storage.RedisDB, &errs)
	c.Storage.MongoURI = getEnv("MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDatabase = getEnv("MONGO_DB_NAME", c.Storage.MongoDatabase)
	c.Storage.SQLDSN = getEnv("SQL_DSN", c.Storage.SQLDSN)

	c.Support.CallTimeout = getEnvDuration("SUPPORT_CALL_TIMEOUT", c.Support.CallTimeout, &errs)
	c.Support.ReplyDelay = getEnvDuration("SUPPORT_REPLY_DELAY", c.Support.ReplyDelay, &errs)

	c.Session.IdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", c.Session.IdleTimeout, &errs)

	c.Kafka.Brokers = getEnvList("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)
	c.Kafka.InstanceID = getEnv("KAFKA_INSTANCE_ID", c.Kafka.InstanceID)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http port is required"))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend base url is required"))
	}
	if c.Backend.RateLimit <= 0 || c.Backend.RateBurst < 1 {
		errs = append(errs, errors.New("backend rate limit and burst must be positive"))
	}
	if c.Support.CallTimeout <= 0 {
		errs = append(errs, errors.New("support call timeout must be positive"))
	}
	if c.Support.ReplyDelay < 0 {
		errs = append(errs, errors.New("support reply delay cannot be negative"))
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, errors.New("session idle timeout cannot be negative"))
	}

	switch c.Storage.Driver {
	case "memory", "redis", "mongo":
	case "sqlite", "postgres":
		if c.Storage.SQLDSN == "" {
			errs = append(errs, fmt.Errorf("storage driver %s needs sql_dsn", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
