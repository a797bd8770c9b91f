package repository

import "time"

const (
	defaultShardCount            = 8
	defaultTTL                   = 30 * time.Minute
	defaultJanitorInterval       = time.Minute
	defaultMetricsUpdateInterval = 5 * time.Second
	defaultKeyPrefix             = "lensfit:session:"
)

// settings is shared by every Store backend; each backend reads the fields it needs.
type settings struct {
	shardCount            int
	maxSessions           int
	ttl                   time.Duration
	janitorInterval       time.Duration
	metricsUpdateInterval time.Duration
	keyPrefix             string
	now                   func() time.Time
}

func defaultSettings() settings {
	return settings{
		shardCount:            defaultShardCount,
		ttl:                   defaultTTL,
		janitorInterval:       defaultJanitorInterval,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		keyPrefix:             defaultKeyPrefix,
		now:                   time.Now,
	}
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithShardCount sets the number of independently locked shards.
func WithShardCount(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxSessions bounds the number of stored sessions. Zero means unbounded.
// Only MemoryStore enforces it; RedisStore relies on TTL expiry.
func WithMaxSessions(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithTTL sets how long an untouched session lives.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithJanitorInterval sets how often expired sessions are swept.
func WithJanitorInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
