package studio

import "time"

// Config holds studio configuration.
type Config struct {
	// VideoDuration is the length of a video item without its own duration.
	VideoDuration float64

	// FallbackDuration is the per-image length used before audio is attached.
	FallbackDuration float64

	// ManifestPrefix is the storage key prefix for assembled timeline manifests.
	ManifestPrefix string

	// ManifestURLTTL is the lifetime of presigned manifest URLs.
	ManifestURLTTL time.Duration

	// RunRetention is how long finished runs stay available for replay and retry.
	RunRetention time.Duration

	// SubscriberBuffer is the per-subscriber event buffer.
	SubscriberBuffer int
}

// DefaultConfig returns default studio configuration.
func DefaultConfig() *Config {
	return &Config{
		VideoDuration:    3,
		FallbackDuration: 3,
		ManifestPrefix:   "timelines",
		ManifestURLTTL:   time.Hour,
		RunRetention:     time.Hour,
		SubscriberBuffer: 128,
	}
}
