package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the assistant service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"assistant-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8190"`
	MetricsPort     int           `env:"METRICS_PORT" envDefault:"9190"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Empty DatabaseURL keeps conversations in memory (local development only).
	DatabaseURL    string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Empty RedisURL keeps counters and conversation locks in process.
	RedisURL string        `env:"REDIS_URL"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"90s"`

	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL        string        `env:"OPENAI_BASE_URL"`
	OpenAIModel          string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIAssistantID    string        `env:"OPENAI_ASSISTANT_ID"`
	OpenAIVectorStoreID  string        `env:"OPENAI_VECTOR_STORE_ID"`
	OpenAIAssistantName  string        `env:"OPENAI_ASSISTANT_NAME" envDefault:"Pawsitive Haven Assistant"`
	CompletionTimeout    time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"30s"`
	RunPollInterval      time.Duration `env:"RUN_POLL_INTERVAL" envDefault:"500ms"`
	RunTimeout           time.Duration `env:"RUN_TIMEOUT" envDefault:"60s"`
	ChatMaxMessageLength int           `env:"CHAT_MAX_MESSAGE_LENGTH" envDefault:"2000"`
	ChatHistoryWindow    int           `env:"CHAT_HISTORY_WINDOW" envDefault:"20"`
	ChatFAQLimit         int           `env:"CHAT_FAQ_LIMIT" envDefault:"15"`

	RateLimitPerMinute   int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitPerHour     int           `env:"RATE_LIMIT_PER_HOUR" envDefault:"100"`
	RateLimitPerDay      int           `env:"RATE_LIMIT_PER_DAY" envDefault:"500"`
	ViolationThreshold   int           `env:"RATE_LIMIT_VIOLATION_THRESHOLD" envDefault:"5"`
	BanDuration          time.Duration `env:"RATE_LIMIT_BAN_DURATION" envDefault:"24h"`
	CounterShards        int           `env:"COUNTER_SHARDS" envDefault:"32"`
	CounterShardCapacity int           `env:"COUNTER_SHARD_CAPACITY" envDefault:"4096"`
	CounterSweepCron     string        `env:"COUNTER_SWEEP_CRON" envDefault:"*/5 * * * *"`

	AuthEnabled   bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthJWKSURL   string `env:"AUTH_JWKS_URL"`
	AuthIssuer    string `env:"AUTH_ISSUER"`
	AuthAudience  string `env:"AUTH_AUDIENCE"`

	EscalationWebhookURL string `env:"ESCALATION_WEBHOOK_URL"`
}

// Load parses environment variables into Config.
//
// Environment variables win over a loaded .env file, which wins over the
// struct tag defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.AuthEnabled && strings.TrimSpace(c.AuthJWTSecret) == "" && strings.TrimSpace(c.AuthJWKSURL) == "" {
		return errors.New("AUTH_JWT_SECRET or AUTH_JWKS_URL is required when AUTH_ENABLED is true")
	}

	positive := map[string]int{
		"RATE_LIMIT_PER_MINUTE":          c.RateLimitPerMinute,
		"RATE_LIMIT_PER_HOUR":            c.RateLimitPerHour,
		"RATE_LIMIT_PER_DAY":             c.RateLimitPerDay,
		"RATE_LIMIT_VIOLATION_THRESHOLD": c.ViolationThreshold,
		"CHAT_MAX_MESSAGE_LENGTH":        c.ChatMaxMessageLength,
		"CHAT_HISTORY_WINDOW":            c.ChatHistoryWindow,
		"COUNTER_SHARDS":                 c.CounterShards,
		"COUNTER_SHARD_CAPACITY":         c.CounterShardCapacity,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}

	durations := map[string]time.Duration{
		"RUN_POLL_INTERVAL":       c.RunPollInterval,
		"RUN_TIMEOUT":             c.RunTimeout,
		"COMPLETION_TIMEOUT":      c.CompletionTimeout,
		"RATE_LIMIT_BAN_DURATION": c.BanDuration,
	}
	for name, value := range durations {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}

	if c.ChatFAQLimit < 0 {
		return fmt.Errorf("CHAT_FAQ_LIMIT must not be negative, got %d", c.ChatFAQLimit)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// MetricsAddr returns the Prometheus listen address.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}

// StatefulAssistant reports whether a persistent assistant identity is configured.
func (c *Config) StatefulAssistant() bool {
	return strings.TrimSpace(c.OpenAIAssistantID) != ""
}
