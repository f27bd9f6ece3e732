package producer

import (
	"time"

	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a producer.
type Option func(*config)

type config struct {
	bufferCapacity int
	idleWait       time.Duration
	rateLimiter    *rate.Limiter
}

// defaultIdleWait bounds the worker's wait when it has nothing to do. Short
// enough that resumed work is prompt, long enough to keep an idle producer
// off the CPU.
const defaultIdleWait = time.Millisecond

func newConfig(opts ...Option) *config {
	cfg := &config{
		bufferCapacity: 0, // unbounded
		idleWait:       defaultIdleWait,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithBufferCapacity bounds the outbound conduit to n items. Once full, the
// worker stops producing and resumes as soon as the host drains a slot.
// If not specified, the conduit grows without bound and production never
// pauses.
func WithBufferCapacity(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.bufferCapacity = n
		}
	}
}

// WithIdleWait sets the upper bound on how long the worker sleeps when there
// is nothing to do: no inbound messages pending and no room (or budget) to
// produce. The worker wakes earlier when input arrives or a buffer slot
// frees. If not specified, defaults to one millisecond.
func WithIdleWait(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.idleWait = d
		}
	}
}

// WithRateLimit caps production throughput. stepsPerSecond specifies the
// maximum number of production steps per second, burst the number of steps
// that may run back to back. Inbound message handling is never rate limited.
// If not specified, the worker produces as fast as buffer space allows.
//
// Example:
//
//	WithRateLimit(10, 5) // at most 10 steps/sec, bursts of 5
func WithRateLimit(stepsPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if stepsPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(stepsPerSecond), burst)
		}
	}
}
