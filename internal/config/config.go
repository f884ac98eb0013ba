package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve in minimal containers

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`
	// RabbitMQURL is optional. Without it status callbacks are reconciled inline.
	RabbitMQURL string `env:"RABBITMQ_URL"`

	ProviderBaseURL           string `env:"PROVIDER_BASE_URL,default=https://api.twilio.com"`
	ProviderAccountSID        string `env:"PROVIDER_ACCOUNT_SID"`
	ProviderAuthToken         string `env:"PROVIDER_AUTH_TOKEN"`
	ProviderFromNumber        string `env:"PROVIDER_FROM_NUMBER"`
	ProviderStatusCallbackURL string `env:"PROVIDER_STATUS_CALLBACK_URL"`
	ProviderTimeoutMs         int    `env:"PROVIDER_TIMEOUT_MS,default=10000"`

	DefaultPhoneRegion        string `env:"DEFAULT_PHONE_REGION,default=US"`
	DispatchConcurrency       int    `env:"DISPATCH_CONCURRENCY,default=32"`
	SendRateLimitPerSec       int    `env:"SEND_RATE_LIMIT_PER_SEC,default=100"`
	CallbackWorkerConcurrency int    `env:"CALLBACK_WORKER_CONCURRENCY,default=4"`
	DisplayTimezone           string `env:"DISPLAY_TIMEZONE,default=America/New_York"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DispatchConcurrency < 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must not be negative")
	}
	if c.CallbackWorkerConcurrency < 1 {
		return fmt.Errorf("CALLBACK_WORKER_CONCURRENCY must be at least 1")
	}
	if len(strings.TrimSpace(c.DefaultPhoneRegion)) != 2 {
		return fmt.Errorf("DEFAULT_PHONE_REGION must be a two letter region code")
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	return nil
}

// ProviderConfigured reports whether text sends can reach the provider.
func (c *Config) ProviderConfigured() bool {
	return strings.TrimSpace(c.ProviderAccountSID) != "" &&
		strings.TrimSpace(c.ProviderAuthToken) != "" &&
		strings.TrimSpace(c.ProviderFromNumber) != ""
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMs) * time.Millisecond
}

// DisplayLocation is the fallback timezone for grouping alert history by day.
func (c *Config) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CallbackQueueEnabled reports whether callbacks go through RabbitMQ.
func (c *Config) CallbackQueueEnabled() bool {
	return strings.TrimSpace(c.RabbitMQURL) != ""
}
