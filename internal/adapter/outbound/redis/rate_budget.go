package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

const (
	rateBudgetKeyPrefix = "reelgen:budget:"
	rateBudgetTimeout   = 2 * time.Second
)

// rateBudget implements outbound.RateLimiterPort with a fixed window counter
// shared by every process that talks to the same provider.
// Redis errors fail open: a missing budget never stalls generation.
type rateBudget struct {
	client   redis.UniversalClient
	key      string
	capacity int
	window   time.Duration
	logger   *zap.Logger
}

// NewRateBudget creates a Redis-backed budget for one provider.
func NewRateBudget(client redis.UniversalClient, provider string, capacity int, window time.Duration, logger *zap.Logger) outbound.RateLimiterPort {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rateBudget{
		client:   client,
		key:      rateBudgetKeyPrefix + provider,
		capacity: capacity,
		window:   window,
		logger:   logger.With(zap.String("provider", provider)),
	}
}

// NewRateBudgetFactory returns a limiter factory backed by client.
func NewRateBudgetFactory(client redis.UniversalClient, logger *zap.Logger) generation.LimiterFactory {
	return func(provider string, capacity int, window time.Duration) outbound.RateLimiterPort {
		return NewRateBudget(client, provider, capacity, window, logger)
	}
}

func (r *rateBudget) Reserve(n int) bool {
	used, ok := r.used()
	if !ok || used == 0 {
		return true
	}
	return n <= r.capacity-used
}

func (r *rateBudget) Remaining() int {
	used, ok := r.used()
	if !ok {
		return r.capacity
	}
	return max(0, r.capacity-used)
}

func (r *rateBudget) Record(used int) {
	if used <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), rateBudgetTimeout)
	defer cancel()

	// The first write of a window starts its expiry; later writes keep it.
	pipe := r.client.TxPipeline()
	pipe.IncrBy(ctx, r.key, int64(used))
	pipe.ExpireNX(ctx, r.key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("Failed to record rate budget", zap.Int("used", used), zap.Error(err))
	}
}

func (r *rateBudget) ResetIn() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), rateBudgetTimeout)
	defer cancel()

	ttl, err := r.client.PTTL(ctx, r.key).Result()
	if err != nil {
		r.logger.Warn("Failed to read rate budget ttl", zap.Error(err))
		return 0
	}
	// -2 means no key, -1 no expiry.
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (r *rateBudget) used() (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), rateBudgetTimeout)
	defer cancel()

	used, err := r.client.Get(ctx, r.key).Int()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		r.logger.Warn("Failed to read rate budget", zap.Error(err))
		return 0, false
	}
	return used, true
}

// Compile-time interface check
var _ outbound.RateLimiterPort = (*rateBudget)(nil)
