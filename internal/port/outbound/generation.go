package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/uniedit/reelgen/internal/model"
)

// ErrProviderUnavailable is returned while a provider is refusing calls,
// e.g. behind an open circuit breaker.
var ErrProviderUnavailable = errors.New("media provider unavailable")

// MediaGeneratorPort performs one generation call for one request.
type MediaGeneratorPort interface {
	// Name returns the provider name used for cooldown and budget lookups.
	Name() string

	// Generate turns a single request into a single media item.
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.MediaItem, error)
}

// MediaGeneratorRegistryPort resolves generators by provider name.
type MediaGeneratorRegistryPort interface {
	// Get returns the generator registered under name.
	Get(name string) (MediaGeneratorPort, error)

	// Default returns the generator used for a media kind when none is named.
	Default(kind model.MediaKind) (MediaGeneratorPort, error)

	// Names lists registered provider names.
	Names() []string
}

// RateLimiterPort tracks a rolling request budget for one provider.
// It never blocks; callers decide how long to wait.
type RateLimiterPort interface {
	// Reserve reports whether n more requests fit the current window.
	Reserve(n int) bool

	// Remaining returns the budget left in the current window.
	Remaining() int

	// Record consumes used requests from the budget.
	Record(used int)

	// ResetIn returns the time until the window rolls over.
	ResetIn() time.Duration
}
