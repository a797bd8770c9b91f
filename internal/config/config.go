// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, YAML file and LENSFIT_* environment variables on top.
// - Validate reports every problem wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/lensfit/internal/domain/geometry"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile enables rotating file output next to stdout when set.
	LogFile       string `koanf:"log_file"`
	LogMaxSizeMB  int    `koanf:"log_max_size_mb"`
	LogMaxBackups int    `koanf:"log_max_backups"`
	LogMaxAgeDays int    `koanf:"log_max_age_days"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the session backend: memory or redis.
	Store string `koanf:"store"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// ShardCount configures the number of shards in the in-memory session store.
	ShardCount int `koanf:"shard_count"`

	// MaxSessions caps the in-memory store; the least recently touched
	// session is evicted beyond it. Zero means unbounded. The redis store
	// relies on TTL expiry only and ignores it.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSeconds expires idle sessions.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// JanitorIntervalSeconds sets how often expired sessions are swept.
	JanitorIntervalSeconds int `koanf:"janitor_interval_seconds"`

	// ReferenceWidthMM is the physical width of the calibration object.
	ReferenceWidthMM float64 `koanf:"reference_width_mm"`

	// RateLimitRPS and RateLimitBurst bound requests per client. RPS 0 disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	// MetricsEnabled toggles fitting workflow metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`
	// MetricsRefreshSeconds sets how often gauges are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`
	// MetricsInstance, when set, is attached to every metric as an "instance" label.
	MetricsInstance string `koanf:"metrics_instance"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogMaxSizeMB:           100,
		LogMaxBackups:          3,
		LogMaxAgeDays:          28,
		Addr:                   ":9080",
		Store:                  StoreMemory,
		RedisAddr:              "localhost:6379",
		ShardCount:             8,
		MaxSessions:            10_000,
		SessionTTLSeconds:      1800,
		JanitorIntervalSeconds: 60,
		ReferenceWidthMM:       geometry.CardWidthMM,
		RateLimitRPS:           20,
		RateLimitBurst:         40,
		MetricsNamespace:       "lensfit",
		MetricsEnabled:         true,
		MetricsRefreshSeconds:  10,
	}
}

// Validate checks field ranges and returns ErrInvalidConfig listing every problem.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr must not be empty")
	}
	switch c.Store {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, "redis_addr must be set when store is redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("store must be %q or %q, got %q", StoreMemory, StoreRedis, c.Store))
	}
	if c.ShardCount <= 0 {
		problems = append(problems, "shard_count must be positive")
	}
	if c.MaxSessions < 0 {
		problems = append(problems, "max_sessions must not be negative")
	}
	if c.SessionTTLSeconds <= 0 {
		problems = append(problems, "session_ttl_seconds must be positive")
	}
	if c.JanitorIntervalSeconds <= 0 {
		problems = append(problems, "janitor_interval_seconds must be positive")
	}
	if !(c.ReferenceWidthMM > 0) || math.IsInf(c.ReferenceWidthMM, 0) {
		problems = append(problems, "reference_width_mm must be positive and finite")
	}
	if c.RateLimitRPS < 0 {
		problems = append(problems, "rate_limit_rps must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		problems = append(problems, "rate_limit_burst must be positive when rate limiting is enabled")
	}
	if !validMetricName(c.MetricsNamespace) {
		problems = append(problems, fmt.Sprintf("metrics_namespace %q must match [a-zA-Z_][a-zA-Z0-9_]*", c.MetricsNamespace))
	}
	if c.MetricsRefreshSeconds <= 0 {
		problems = append(problems, "metrics_refresh_seconds must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func validMetricName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
