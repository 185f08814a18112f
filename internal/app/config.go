package app

import (
	"fmt"

	"github.com/uniedit/reelgen/internal/infra/config"
)

// LoadConfig loads configuration and rejects settings the providers would
// trip over at startup or on first use.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
