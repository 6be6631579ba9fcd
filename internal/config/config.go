// Package config loads the process configuration from the environment using
// envdecode struct tags. Defaults keep the server usable with nothing but a
// developer key set.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the full environment surface consumed by the server core.
type Config struct {
	// Upstream API.
	APIBaseURL   string        `env:"DIGITALSAMBA_API_URL,default=https://api.digitalsamba.com/api/v1"`
	DeveloperKey string        `env:"DIGITALSAMBA_DEVELOPER_KEY"`
	TeamID       string        `env:"DIGITALSAMBA_TEAM_ID"`
	CallTimeout  time.Duration `env:"MCP_UPSTREAM_TIMEOUT,default=15s"`

	// HTTP channel.
	ListenAddr string `env:"MCP_HTTP_LISTEN,default=:3000"`

	// Rate limiting (token bucket per credential scope).
	RateLimitPerMinute int `env:"MCP_RATE_LIMIT_RPM,default=600"`
	RateLimitBurst     int `env:"MCP_RATE_LIMIT_BURST,default=60"`

	// Response cache.
	CacheTTL        time.Duration `env:"MCP_CACHE_TTL,default=30s"`
	CacheMaxEntries int           `env:"MCP_CACHE_MAX_ENTRIES,default=2048"`

	// Circuit breaker.
	BreakerFailureThreshold int           `env:"MCP_BREAKER_FAILURE_THRESHOLD,default=5"`
	BreakerResetTimeout     time.Duration `env:"MCP_BREAKER_RESET_TIMEOUT,default=30s"`

	// Retry/backoff for transient upstream failures.
	RetryMaxAttempts int           `env:"MCP_RETRY_MAX_ATTEMPTS,default=3"`
	RetryBaseDelay   time.Duration `env:"MCP_RETRY_BASE_DELAY,default=250ms"`
	RetryMaxDelay    time.Duration `env:"MCP_RETRY_MAX_DELAY,default=5s"`
}

// FromEnv decodes Config from the process environment.
func FromEnv() (Config, error) {
	var c Config
	if err := envdecode.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations that would disable the resilience pipeline
// in surprising ways.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("DIGITALSAMBA_API_URL must not be empty")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("MCP_RATE_LIMIT_RPM must be >= 0, got %d", c.RateLimitPerMinute)
	}
	if c.BreakerFailureThreshold < 1 {
		return fmt.Errorf("MCP_BREAKER_FAILURE_THRESHOLD must be >= 1, got %d", c.BreakerFailureThreshold)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("MCP_RETRY_MAX_ATTEMPTS must be >= 1, got %d", c.RetryMaxAttempts)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("MCP_UPSTREAM_TIMEOUT must be positive, got %s", c.CallTimeout)
	}
	return nil
}
