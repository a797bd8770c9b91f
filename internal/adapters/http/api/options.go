package api

import (
	"time"

	"github.com/okian/lensfit/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimit enables per-client token-bucket limiting on /v1 routes.
// A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = newRateLimiter(rps, burst, defaultLimiterIdleTTL)
		} else {
			s.limiter = nil
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

const (
	defaultLimiterIdleTTL = 10 * time.Minute
	defaultMaxBodyBytes   = 64 << 10
)
