package mediaprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	FailureThreshold    uint32
	Interval            time.Duration
	Timeout             time.Duration
	MaxHalfOpenRequests uint32
}

// DefaultBreakerConfig returns the default circuit breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold:    5,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// BreakerGenerator guards a generator with a circuit breaker. Once the
// provider keeps failing, jobs fail fast instead of waiting on it.
type BreakerGenerator struct {
	next    outbound.MediaGeneratorPort
	breaker *gobreaker.CircuitBreaker[*model.MediaItem]
}

// NewBreakerGenerator wraps next.
func NewBreakerGenerator(next outbound.MediaGeneratorPort, config *BreakerConfig) *BreakerGenerator {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	threshold := config.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: config.MaxHalfOpenRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A cancelled caller says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerGenerator{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*model.MediaItem](settings),
	}
}

// Name returns the wrapped provider name.
func (g *BreakerGenerator) Name() string {
	return g.next.Name()
}

// Generate calls the wrapped generator through the breaker.
func (g *BreakerGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.MediaItem, error) {
	item, err := g.breaker.Execute(func() (*model.MediaItem, error) {
		return g.next.Generate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %v", outbound.ErrProviderUnavailable, g.next.Name(), err)
	}
	return item, err
}

// State returns the breaker state.
func (g *BreakerGenerator) State() gobreaker.State {
	return g.breaker.State()
}

// Compile-time interface check
var _ outbound.MediaGeneratorPort = (*BreakerGenerator)(nil)
