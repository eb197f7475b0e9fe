// Package config loads the server configuration from an optional YAML file
// overlaid with NATOURS_* environment variables.
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

// PasswordPlaceholder is replaced in the Mongo URI by Storage.Password.
const PasswordPlaceholder = "<PASSWORD>"

// Storage backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	BodyLimit       int64         `yaml:"body_limit"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type StorageConfig struct {
	Backend  string `yaml:"backend"`
	URI      string `yaml:"uri"`      // Mongo connection string
	Database string `yaml:"database"` // Mongo database name
	DSN      string `yaml:"dsn"`      // SQL data source name
	Password string `yaml:"password"`
}

// MongoURI returns the URI with its password placeholder filled in.
func (s StorageConfig) MongoURI() string {
	return strings.ReplaceAll(s.URI, PasswordPlaceholder, s.Password)
}

type RateLimitConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Max       int           `yaml:"max"`
	Window    time.Duration `yaml:"window"`
	RedisAddr string        `yaml:"redis_addr"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	Output     string `yaml:"output"` // stdout, stderr or a file path
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	// StageTrace prints every pipeline stage in colour.
	StageTrace bool `yaml:"stage_trace"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			BodyLimit:       10 << 10,
		},
		Storage: StorageConfig{
			Backend:  BackendMemory,
			Database: "natours",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Max:     100,
			Window:  time.Hour,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path, when non-empty, over the defaults and applies the
// environment on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("NATOURS_ENV", c.Env)

	c.Server.Host = getEnv("NATOURS_HOST", c.Server.Host)
	c.Server.Port = getEnv("NATOURS_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("NATOURS_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("NATOURS_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("NATOURS_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("NATOURS_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.BodyLimit = int64(getEnvInt("NATOURS_BODY_LIMIT", int(c.Server.BodyLimit)))

	c.Storage.Backend = getEnv("NATOURS_STORAGE", c.Storage.Backend)
	c.Storage.URI = getEnv("NATOURS_DATABASE", c.Storage.URI)
	c.Storage.Database = getEnv("NATOURS_DATABASE_NAME", c.Storage.Database)
	c.Storage.DSN = getEnv("NATOURS_DATABASE_DSN", c.Storage.DSN)
	c.Storage.Password = getEnv("NATOURS_DATABASE_PASSWORD", c.Storage.Password)

	c.RateLimit.Enabled = getEnvBool("NATOURS_RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.Max = getEnvInt("NATOURS_RATE_LIMIT_MAX", c.RateLimit.Max)
	c.RateLimit.Window = getEnvDuration("NATOURS_RATE_LIMIT_WINDOW", c.RateLimit.Window)
	c.RateLimit.RedisAddr = getEnv("NATOURS_REDIS_ADDR", c.RateLimit.RedisAddr)

	c.Logging.Level = getEnv("NATOURS_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("NATOURS_LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("NATOURS_LOG_OUTPUT", c.Logging.Output)
	c.Logging.StageTrace = getEnvBool("NATOURS_STAGE_TRACE", c.Logging.StageTrace)

	c.Metrics.Enabled = getEnvBool("NATOURS_METRICS_ENABLED", c.Metrics.Enabled)
}

// IsProduction reports whether Env is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("env must be development or production, got %q", c.Env)
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.BodyLimit <= 0 {
		return errors.New("server body limit must be positive")
	}

	switch c.Storage.Backend {
	case BackendMongo:
		if c.Storage.URI == "" {
			return errors.New("database uri is required for mongo storage")
		}
		if strings.Contains(c.Storage.URI, PasswordPlaceholder) && c.Storage.Password == "" {
			return errors.New("database uri has a password placeholder but no password is set")
		}
		if c.Storage.Database == "" {
			return errors.New("database name is required for mongo storage")
		}
	case BackendPostgres, BackendMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("database dsn is required for %s storage", c.Storage.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Max <= 0 {
			return errors.New("rate limit max must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("rate limit window must be positive")
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
