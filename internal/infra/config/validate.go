package config

import (
	"errors"
	"fmt"
)

// Validate reports settings that would only fail later, at first use.
// Every problem is returned, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	g := c.Generation
	if g.BatchSize < 0 {
		add("generation.batch_size must not be negative")
	}
	if g.Capacity < 0 {
		add("generation.capacity must not be negative")
	}
	if g.Cooldown < 0 {
		add("generation.cooldown must not be negative")
	}
	switch g.LimiterBackend {
	case "", "memory", "redis":
	default:
		add("generation.limiter_backend: unknown backend %q", g.LimiterBackend)
	}

	if c.Studio.VideoDuration < 0 || c.Studio.FallbackDuration < 0 {
		add("studio durations must not be negative")
	}

	names := make(map[string]bool)
	images := make(map[string]bool)
	videos := make(map[string]bool)
	register := func(kind, name string, set map[string]bool) {
		switch {
		case name == "":
			add("providers.%s: provider without a name", kind)
		case names[name]:
			add("providers.%s: duplicate provider %q", kind, name)
		default:
			names[name] = true
			set[name] = true
		}
	}
	for _, p := range c.Providers.Images {
		register("images", p.Name, images)
	}
	for _, p := range c.Providers.Videos {
		register("videos", p.Name, videos)
	}
	if d := c.Providers.DefaultImage; d != "" && !images[d] {
		add("providers.default_image: %q is not an image provider", d)
	}
	if d := c.Providers.DefaultVideo; d != "" && !videos[d] {
		add("providers.default_video: %q is not a video provider", d)
	}

	switch c.Assembly.Mode {
	case "", "none":
	case "http":
		if c.Assembly.BaseURL == "" {
			add("assembly.base_url is required in http mode")
		}
	case "ffmpeg":
		if c.Storage.Bucket == "" {
			add("assembly: ffmpeg mode needs storage.bucket")
		}
	default:
		add("assembly.mode: unknown mode %q", c.Assembly.Mode)
	}

	return errors.Join(errs...)
}
