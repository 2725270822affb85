package api

import (
	"fmt"
	"time"
)

// Config defines the HTTP server settings.
type Config struct {
	Address               string   `json:"address"`
	AuthToken             string   `json:"auth_token"`
	RateLimitRPS          float64  `json:"rate_limit_rps"`
	RateLimitBurst        int      `json:"rate_limit_burst"`
	CacheTTLSeconds       int      `json:"cache_ttl_seconds"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	MaxBodyBytes          int64    `json:"max_body_bytes"`
	CORSOrigins           []string `json:"cors_origins"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 10
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 300
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 30
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 4 << 20
	}
}

// Validate checks the ranges. A negative rate or cache TTL disables the feature.
func (c Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("request_timeout_seconds %d too large", c.RequestTimeoutSeconds)
	}
	return nil
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) cacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
