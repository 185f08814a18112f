package generation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(capacity int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	lim := NewRateLimiter(capacity, time.Minute)
	lim.now = clock.Now
	lim.windowStart = clock.Now()
	return lim, clock
}

func TestRateLimiter_Record(t *testing.T) {
	t.Run("consumes budget", func(t *testing.T) {
		lim, _ := newTestLimiter(10)

		lim.Record(4)

		assert.Equal(t, 6, lim.Remaining())
	})

	t.Run("never goes below zero", func(t *testing.T) {
		lim, _ := newTestLimiter(10)

		lim.Record(7)
		lim.Record(7)

		assert.Equal(t, 0, lim.Remaining())
	})

	t.Run("resets after window", func(t *testing.T) {
		lim, clock := newTestLimiter(10)
		lim.Record(10)

		clock.Advance(61 * time.Second)
		lim.Record(3)

		assert.Equal(t, 7, lim.Remaining())
	})

	t.Run("does not reset at exactly one window", func(t *testing.T) {
		lim, clock := newTestLimiter(10)
		lim.Record(10)

		clock.Advance(time.Minute)

		assert.Equal(t, 0, lim.Remaining())
	})

	t.Run("concurrent records", func(t *testing.T) {
		lim, _ := newTestLimiter(100)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lim.Record(1)
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, lim.Remaining())
	})
}

func TestRateLimiter_Reserve(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		lim, _ := newTestLimiter(10)
		lim.Record(5)

		assert.True(t, lim.Reserve(5))
		assert.False(t, lim.Reserve(6))
	})

	t.Run("burst above capacity allowed on fresh window", func(t *testing.T) {
		lim, _ := newTestLimiter(10)

		assert.True(t, lim.Reserve(25))

		lim.Record(25)
		assert.Equal(t, 0, lim.Remaining())
		assert.False(t, lim.Reserve(1))
	})

	t.Run("budget returns after window", func(t *testing.T) {
		lim, clock := newTestLimiter(10)
		lim.Record(10)
		assert.False(t, lim.Reserve(1))

		clock.Advance(2 * time.Minute)

		assert.True(t, lim.Reserve(10))
		assert.Equal(t, 10, lim.Remaining())
	})
}

func TestRateLimiter_ResetIn(t *testing.T) {
	lim, clock := newTestLimiter(10)

	clock.Advance(20 * time.Second)
	assert.Equal(t, 40*time.Second, lim.ResetIn())

	clock.Advance(90 * time.Second)
	assert.Equal(t, time.Duration(0), lim.ResetIn())
}

func TestLimiters_For(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacities["slow"] = 2

	var built []string
	factory := func(provider string, capacity int, window time.Duration) outbound.RateLimiterPort {
		built = append(built, provider)
		return NewRateLimiter(capacity, window)
	}
	limiters := NewLimiters(LimiterFactory(factory), cfg)

	slow := limiters.For("slow")
	again := limiters.For("slow")
	fast := limiters.For("fast")

	assert.Same(t, slow, again)
	assert.Equal(t, 2, slow.Remaining())
	assert.Equal(t, cfg.DefaultCapacity, fast.Remaining())
	assert.Equal(t, []string{"slow", "fast"}, built)
}

func TestConfig_CooldownFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultCooldown = 60 * time.Second
	cfg.Cooldowns = map[string]time.Duration{
		"kling":          30 * time.Second,
		"kling/kling-v2": 90 * time.Second,
	}

	tests := []struct {
		name     string
		provider string
		model    string
		want     time.Duration
	}{
		{"model entry wins", "kling", "kling-v2", 90 * time.Second},
		{"provider entry", "kling", "kling-v1", 30 * time.Second},
		{"no model", "kling", "", 30 * time.Second},
		{"default", "openai", "dall-e-3", 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.CooldownFor(tt.provider, tt.model))
		})
	}
}
