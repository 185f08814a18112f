package generation

import (
	"sync"
	"time"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

// RateLimiter is an in-process rolling request budget.
// All methods are safe for concurrent use.
type RateLimiter struct {
	mu          sync.Mutex
	capacity    int
	window      time.Duration
	windowStart time.Time
	remaining   int
	now         func() time.Time
}

var _ outbound.RateLimiterPort = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter with capacity requests per window.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		capacity:    capacity,
		window:      window,
		windowStart: time.Now(),
		remaining:   capacity,
		now:         time.Now,
	}
}

// Reserve reports whether n requests fit the remaining budget.
// An untouched window always admits the burst, even above capacity.
func (r *RateLimiter) Reserve(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roll(r.now())
	if r.remaining == r.capacity {
		return true
	}
	return n <= r.remaining
}

// Remaining returns the budget left in the current window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roll(r.now())
	return r.remaining
}

// Record consumes used requests. The budget never goes below zero.
func (r *RateLimiter) Record(used int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roll(r.now())
	r.remaining = max(0, r.remaining-used)
}

// ResetIn returns the time until the window rolls over.
func (r *RateLimiter) ResetIn() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := r.window - r.now().Sub(r.windowStart)
	if left < 0 {
		return 0
	}
	return left
}

// Capacity returns the per-window budget.
func (r *RateLimiter) Capacity() int {
	return r.capacity
}

func (r *RateLimiter) roll(now time.Time) {
	if now.Sub(r.windowStart) > r.window {
		r.remaining = r.capacity
		r.windowStart = now
	}
}

// LimiterFactory builds the limiter for one provider.
type LimiterFactory func(provider string, capacity int, window time.Duration) outbound.RateLimiterPort

// NewMemoryLimiterFactory returns a factory of in-process limiters.
func NewMemoryLimiterFactory() LimiterFactory {
	return func(_ string, capacity int, window time.Duration) outbound.RateLimiterPort {
		return NewRateLimiter(capacity, window)
	}
}

// Limiters caches one limiter per provider.
type Limiters struct {
	mu      sync.Mutex
	factory LimiterFactory
	config  *Config
	byName  map[string]outbound.RateLimiterPort
}

// NewLimiters creates a per-provider limiter cache.
func NewLimiters(factory LimiterFactory, config *Config) *Limiters {
	if factory == nil {
		factory = NewMemoryLimiterFactory()
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Limiters{
		factory: factory,
		config:  config,
		byName:  make(map[string]outbound.RateLimiterPort),
	}
}

// For returns the limiter for provider, creating it on first use.
func (l *Limiters) For(provider string) outbound.RateLimiterPort {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.byName[provider]; ok {
		return lim
	}
	lim := l.factory(provider, l.config.CapacityFor(provider), l.config.RateWindow)
	l.byName[provider] = lim
	return lim
}
