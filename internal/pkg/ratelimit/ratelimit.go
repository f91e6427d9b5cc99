package ratelimit

import (
	"strings"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
)

// Limiter bounds requests per caller identifier within a trailing window.
type Limiter interface {
	// Allow reports whether the identifier is still under the limit and, if
	// so, accounts for the current request.
	Allow(identifier string) bool
}

// NewFromEnv picks the limiter backend. The in-memory sliding window is the
// default; it bounds per-instance only, so multi-instance deployments must
// set RATE_LIMIT_BACKEND=redis to share the counter.
func NewFromEnv(window time.Duration, max int) Limiter {
	backend := strings.ToLower(strings.TrimSpace(env.GetEnv("RATE_LIMIT_BACKEND", "memory")))
	if backend == "redis" {
		return NewRedisLimiter(window, max)
	}
	return NewMemoryLimiter(window, max)
}
