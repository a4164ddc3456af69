package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Intake   IntakeConfig
	Uploads  UploadsConfig
	Events   EventsConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	CORSAllowedOrigins      []string
	BodyLimitBytes          int64
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	URL string
}

// IntakeConfig controls the per-client submission cooldown
type IntakeConfig struct {
	CooldownEnabled bool
	Cooldown        time.Duration
}

type UploadsConfig struct {
	Dir           string
	MaxBytes      int64
	PublicBaseURL string // optional; derived from the request when empty
}

type EventsConfig struct {
	KafkaBrokers []string
	ReportsTopic string
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first; it never overrides
// variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 4000),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			CORSAllowedOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			BodyLimitBytes:          getEnvInt64("SERVER_BODY_LIMIT_BYTES", 5<<20),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Intake: IntakeConfig{
			CooldownEnabled: getEnvBool("SUBMIT_COOLDOWN_ENABLED", true),
			Cooldown:        getEnvDuration("SUBMIT_COOLDOWN", 2*time.Minute),
		},
		Uploads: UploadsConfig{
			Dir:           getEnv("UPLOADS_DIR", "uploads"),
			MaxBytes:      getEnvInt64("UPLOADS_MAX_BYTES", 5<<20),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		},
		Events: EventsConfig{
			KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
			ReportsTopic: getEnv("KAFKA_REPORTS_TOPIC", "lifesaver.reports"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	if c.Intake.CooldownEnabled && c.Intake.Cooldown <= 0 {
		return fmt.Errorf("submit cooldown must be positive when enabled")
	}
	if c.Uploads.MaxBytes < 1 {
		return fmt.Errorf("uploads max bytes must be at least 1")
	}
	if len(c.Events.KafkaBrokers) > 0 && c.Events.ReportsTopic == "" {
		return fmt.Errorf("KAFKA_REPORTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
