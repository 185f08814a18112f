package generation

import "time"

// Config holds batch generation configuration.
type Config struct {
	// DefaultBatchSize is used when the caller does not pick a batch size.
	DefaultBatchSize int

	// DefaultCooldown is the pause between batches when no provider entry matches.
	DefaultCooldown time.Duration

	// Cooldowns maps "provider" or "provider/model" to an inter-batch pause.
	Cooldowns map[string]time.Duration

	// DefaultCapacity is the per-window request budget when no provider entry matches.
	DefaultCapacity int

	// Capacities maps a provider name to its per-window request budget.
	Capacities map[string]int

	// RateWindow is the rolling budget window.
	RateWindow time.Duration

	// ProgressInterval is the countdown tick while cooling down.
	ProgressInterval time.Duration

	// JobTimeout bounds a single provider call.
	JobTimeout time.Duration

	// MaxParallelJobs caps concurrent jobs inside a batch. Zero means the whole batch.
	MaxParallelJobs int

	// EventBuffer is the capacity of a run's event channel.
	EventBuffer int
}

// DefaultConfig returns default generation configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultBatchSize: 5,
		DefaultCooldown:  60 * time.Second,
		Cooldowns:        map[string]time.Duration{},
		DefaultCapacity:  10,
		Capacities:       map[string]int{},
		RateWindow:       time.Minute,
		ProgressInterval: time.Second,
		JobTimeout:       5 * time.Minute,
		EventBuffer:      64,
	}
}

// CooldownFor returns the inter-batch pause for a provider and model.
// A "provider/model" entry wins over a "provider" entry.
func (c *Config) CooldownFor(provider, model string) time.Duration {
	if model != "" {
		if d, ok := c.Cooldowns[provider+"/"+model]; ok {
			return d
		}
	}
	if d, ok := c.Cooldowns[provider]; ok {
		return d
	}
	return c.DefaultCooldown
}

// CapacityFor returns the per-window request budget for a provider.
func (c *Config) CapacityFor(provider string) int {
	if n, ok := c.Capacities[provider]; ok && n > 0 {
		return n
	}
	return c.DefaultCapacity
}
