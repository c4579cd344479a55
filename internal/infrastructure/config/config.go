package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	Live      LiveConfig
	Reminder  ReminderConfig
	Directory DirectoryConfig

	EventWorkers int `env:"EVENT_WORKERS, default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=crm"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST,     default=localhost"`
	Port     int           `env:"SMTP_PORT,     default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM,     default=noreply@localhost"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT,  default=30s"`
}

type LiveConfig struct {
	Heartbeat  time.Duration `env:"LIVE_HEARTBEAT,   default=25s"`
	OutboxSize int           `env:"LIVE_OUTBOX_SIZE, default=64"`
}

type ReminderConfig struct {
	// EditPolicy is "append" or "replace".
	EditPolicy string `env:"REMINDER_EDIT_POLICY, default=append"`
}

type DirectoryConfig struct {
	// RefreshInterval of 0 disables periodic refresh.
	RefreshInterval time.Duration `env:"DIRECTORY_REFRESH_INTERVAL, default=0s"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.EventWorkers < 0 {
		errs = append(errs, fmt.Errorf("EVENT_WORKERS must not be negative, got %d", c.EventWorkers))
	}
	switch c.Reminder.EditPolicy {
	case "append", "replace":
	default:
		errs = append(errs, fmt.Errorf("REMINDER_EDIT_POLICY must be append or replace, got %q", c.Reminder.EditPolicy))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
