package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Generation: GenerationConfig{BatchSize: 5, Capacity: 10, LimiterBackend: "memory"},
		Studio:     StudioConfig{VideoDuration: 3, FallbackDuration: 3},
		Providers: ProvidersConfig{
			DefaultImage: "openai",
			DefaultVideo: "runway",
			Images:       []ImageProviderConfig{{Name: "openai"}},
			Videos:       []VideoProviderConfig{{Name: "runway"}},
		},
		Assembly: AssemblyConfig{Mode: "none"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"negative batch size", func(c *Config) { c.Generation.BatchSize = -1 }, "batch_size"},
		{"unknown limiter", func(c *Config) { c.Generation.LimiterBackend = "etcd" }, "limiter_backend"},
		{"unnamed provider", func(c *Config) { c.Providers.Images = append(c.Providers.Images, ImageProviderConfig{}) }, "without a name"},
		{"duplicate across kinds", func(c *Config) { c.Providers.Videos = append(c.Providers.Videos, VideoProviderConfig{Name: "openai"}) }, "duplicate provider"},
		{"default image is a video provider", func(c *Config) { c.Providers.DefaultImage = "runway" }, "default_image"},
		{"missing default video", func(c *Config) { c.Providers.DefaultVideo = "pika" }, "default_video"},
		{"http assembly without url", func(c *Config) { c.Assembly.Mode = "http" }, "base_url"},
		{"ffmpeg assembly without bucket", func(c *Config) { c.Assembly.Mode = "ffmpeg" }, "storage.bucket"},
		{"unknown assembly mode", func(c *Config) { c.Assembly.Mode = "gpu" }, "assembly.mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.Generation.BatchSize = -1
		cfg.Assembly.Mode = "gpu"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_size")
		assert.Contains(t, err.Error(), "assembly.mode")
	})
}
