// Package config loads application configuration. Values come from, in
// rising precedence: defaults, an optional YAML file (PLANNER_CONFIG),
// and environment variables. A .env file in the working directory is
// loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	DatabaseDriver string `yaml:"database_driver"` // "postgres" or "sqlite"
	DatabaseURL    string `yaml:"database_url"`
	SQLitePath     string `yaml:"sqlite_path"`

	ServerPort  string `yaml:"server_port"`
	BaseURL     string `yaml:"base_url"`
	FrontendURL string `yaml:"frontend_url"`
	EnableHSTS  bool   `yaml:"enable_hsts"`

	RedisURL      string `yaml:"redis_url"`
	RateLimit     string `yaml:"rate_limit"` // ulule/limiter format, e.g. "100-M"
	RabbitMQURL   string `yaml:"rabbitmq_url"`
	QueuePrefetch int    `yaml:"queue_prefetch"`

	OIDCIssuer      string `yaml:"oidc_issuer"`
	OIDCClientID    string `yaml:"oidc_client_id"`
	OIDCRedirectURL string `yaml:"oidc_redirect_url"`
	JWKSURL         string `yaml:"jwks_url"`

	OpenAIKey string `yaml:"openai_api_key"`
	AIModel   string `yaml:"ai_model"`
	AIBaseURL string `yaml:"ai_base_url"`

	OTELEnabled  bool   `yaml:"otel_enabled"`
	OTELEndpoint string `yaml:"otel_endpoint"`

	ServerDebugMode bool `yaml:"server_debug_mode"`
	WorkerDebugMode bool `yaml:"worker_debug_mode"`
}

// Load builds the configuration and validates the parts every process
// needs. Queue and AI settings stay optional; the features degrade when
// they are absent.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseDriver: "postgres",
		SQLitePath:     "planner.db",
		ServerPort:     "8080",
		BaseURL:        "http://localhost:8080",
		FrontendURL:    "http://localhost:3000",
		RedisURL:       "redis://localhost:6379/0",
		RateLimit:      "100-M",
		QueuePrefetch:  1,
	}

	if path := os.Getenv("PLANNER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	switch cfg.DatabaseDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required with the postgres driver")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required with the sqlite driver")
		}
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q (must be postgres or sqlite)", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// DSN returns the driver name and data source for the configured
// database.
func (c *Config) DSN() (driver, dsn string) {
	if c.DatabaseDriver == "sqlite" {
		return "sqlite", c.SQLitePath
	}
	return "postgres", c.DatabaseURL
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DatabaseDriver = getEnv("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.EnableHSTS = getEnvBool("ENABLE_HSTS", c.EnableHSTS)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RateLimit = getEnv("RATE_LIMIT", c.RateLimit)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.QueuePrefetch = getEnvInt("QUEUE_PREFETCH", c.QueuePrefetch)
	c.OIDCIssuer = getEnv("OIDC_ISSUER", c.OIDCIssuer)
	c.OIDCClientID = getEnv("OIDC_CLIENT_ID", c.OIDCClientID)
	c.OIDCRedirectURL = getEnv("OIDC_REDIRECT_URL", c.OIDCRedirectURL)
	c.JWKSURL = getEnv("JWKS_URL", c.JWKSURL)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.AIModel = getEnv("AI_MODEL", c.AIModel)
	c.AIBaseURL = getEnv("AI_BASE_URL", c.AIBaseURL)
	c.OTELEnabled = getEnvBool("OTEL_ENABLED", c.OTELEnabled)
	c.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTELEndpoint)
	c.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", c.ServerDebugMode)
	c.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", c.WorkerDebugMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
