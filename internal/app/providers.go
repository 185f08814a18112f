package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Domains
	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/domain/studio"

	// Inbound adapters
	studiohttp "github.com/uniedit/reelgen/internal/adapter/inbound/http/studio"

	// Ports
	"github.com/uniedit/reelgen/internal/port/outbound"

	// Outbound adapters
	"github.com/uniedit/reelgen/internal/adapter/outbound/assembly"
	"github.com/uniedit/reelgen/internal/adapter/outbound/kafka"
	"github.com/uniedit/reelgen/internal/adapter/outbound/mediaprovider"
	"github.com/uniedit/reelgen/internal/adapter/outbound/postgres"
	redisadapter "github.com/uniedit/reelgen/internal/adapter/outbound/redis"
	s3adapter "github.com/uniedit/reelgen/internal/adapter/outbound/s3"

	// Infrastructure
	"github.com/uniedit/reelgen/internal/infra/cache"
	"github.com/uniedit/reelgen/internal/infra/config"
	"github.com/uniedit/reelgen/internal/infra/database"
	"github.com/uniedit/reelgen/internal/infra/events"
	"github.com/uniedit/reelgen/internal/infra/httpclient"

	// Utils
	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/utils/logger"
	"github.com/uniedit/reelgen/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideZapLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideMetrics,
	ProvideArtifactStorage,
)

// ProvideZapLogger creates the application logger.
func ProvideZapLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideDatabase creates a database connection and migrates the schema
// when enabled.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, postgres.Entities()...); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
	}
	return db, func() { _ = database.Close(db) }, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional; without it
// rate budgets stay in-process.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("Redis connection failed, continuing without it", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideMetrics creates the metrics registry.
func ProvideMetrics() *metrics.Metrics {
	return metrics.New("reelgen")
}

// ProvideArtifactStorage creates the S3 artifact store. It is nil when no
// bucket is configured.
func ProvideArtifactStorage(cfg *config.Config) (outbound.ArtifactStoragePort, error) {
	if cfg.Storage.Bucket == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := s3adapter.NewClient(ctx, s3adapter.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return s3adapter.NewArtifactStore(client, cfg.Storage.Bucket), nil
}

// ===== Adapter Providers =====

// AdapterSet provides outbound adapters.
var AdapterSet = wire.NewSet(
	ProvideProjectDB,
	ProvideMediaSetDB,
	ProvideSelectionDB,
	ProvideGeneratorRegistry,
	wire.Bind(new(outbound.MediaGeneratorRegistryPort), new(*mediaprovider.Registry)),
	ProvideLimiters,
	ProvideAssembler,
	ProvideAudioProber,
	ProvideMessagePort,
	ProvideEventBus,
	wire.Bind(new(outbound.EventPublisherPort), new(*events.Bus)),
)

// ProvideProjectDB creates the project database adapter.
func ProvideProjectDB(db *gorm.DB) outbound.ProjectDatabasePort {
	return postgres.NewProjectDBAdapter(db)
}

// ProvideMediaSetDB creates the media set database adapter.
func ProvideMediaSetDB(db *gorm.DB) outbound.MediaSetDatabasePort {
	return postgres.NewMediaSetDBAdapter(db)
}

// ProvideSelectionDB creates the selection database adapter.
func ProvideSelectionDB(db *gorm.DB) outbound.SelectionDatabasePort {
	return postgres.NewSelectionDBAdapter(db)
}

// ProvideGeneratorRegistry registers every configured media provider,
// each behind a circuit breaker when enabled.
func ProvideGeneratorRegistry(cfg *config.Config, client *http.Client) (*mediaprovider.Registry, error) {
	registry := mediaprovider.NewRegistry()
	pc := cfg.Providers

	guard := func(g outbound.MediaGeneratorPort) outbound.MediaGeneratorPort {
		if !pc.Breaker.Enabled {
			return g
		}
		return mediaprovider.NewBreakerGenerator(g, &mediaprovider.BreakerConfig{
			FailureThreshold:    pc.Breaker.FailureThreshold,
			Interval:            pc.Breaker.Interval,
			Timeout:             pc.Breaker.Timeout,
			MaxHalfOpenRequests: pc.Breaker.MaxRequests,
		})
	}

	for _, p := range pc.Images {
		registry.Register(model.MediaKindImage, guard(mediaprovider.NewOpenAIImageGenerator(client, mediaprovider.OpenAIImageConfig{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey,
			Model:   p.Model,
			Size:    p.Size,
			Quality: p.Quality,
			Style:   p.Style,
		})))
	}
	for _, p := range pc.Videos {
		registry.Register(model.MediaKindVideo, guard(mediaprovider.NewVideoGenerator(client, mediaprovider.VideoConfig{
			Name:            p.Name,
			BaseURL:         p.BaseURL,
			APIKey:          p.APIKey,
			Model:           p.Model,
			AspectRatio:     p.AspectRatio,
			DefaultDuration: p.DefaultDuration,
			PollInterval:    p.PollInterval,
			PollTimeout:     p.PollTimeout,
		})))
	}

	if pc.DefaultImage != "" {
		if err := registry.SetDefault(model.MediaKindImage, pc.DefaultImage); err != nil {
			return nil, fmt.Errorf("default image provider: %w", err)
		}
	}
	if pc.DefaultVideo != "" {
		if err := registry.SetDefault(model.MediaKindVideo, pc.DefaultVideo); err != nil {
			return nil, fmt.Errorf("default video provider: %w", err)
		}
	}
	return registry, nil
}

// ProvideLimiters creates the per-provider rate budgets, shared through
// Redis when that backend is selected and reachable.
func ProvideLimiters(cfg *config.Config, genConfig *generation.Config, redisClient goredis.UniversalClient, log *zap.Logger) *generation.Limiters {
	factory := generation.NewMemoryLimiterFactory()
	if cfg.Generation.LimiterBackend == "redis" {
		if redisClient == nil {
			log.Warn("Redis limiter backend selected but Redis is unavailable, using in-process budgets")
		} else {
			factory = redisadapter.NewRateBudgetFactory(redisClient, log)
		}
	}
	return generation.NewLimiters(factory, genConfig)
}

// ProvideAssembler creates the configured video assembler, or nil when
// assembly is disabled.
func ProvideAssembler(cfg *config.Config, client *http.Client, artifacts outbound.ArtifactStoragePort, log *zap.Logger) (outbound.AssemblerPort, error) {
	ac := cfg.Assembly
	switch ac.Mode {
	case "", "none":
		return nil, nil
	case "http":
		if ac.BaseURL == "" {
			return nil, fmt.Errorf("assembly: base_url is required in http mode")
		}
		return assembly.NewHTTPAssembler(client, assembly.HTTPConfig{
			BaseURL: ac.BaseURL,
			APIKey:  ac.APIKey,
		}), nil
	case "ffmpeg":
		if artifacts == nil {
			return nil, fmt.Errorf("assembly: ffmpeg mode needs artifact storage")
		}
		ffcfg := assembly.DefaultFFmpegConfig()
		if ac.FFmpegBinary != "" {
			ffcfg.Binary = ac.FFmpegBinary
		}
		if ac.WorkDir != "" {
			ffcfg.WorkDir = ac.WorkDir
		}
		if ac.Width > 0 && ac.Height > 0 {
			ffcfg.Width, ffcfg.Height = ac.Width, ac.Height
		}
		if ac.FPS > 0 {
			ffcfg.FPS = ac.FPS
		}
		if ac.RenderPrefix != "" {
			ffcfg.KeyPrefix = ac.RenderPrefix
		}
		if ac.RenderURLTTL > 0 {
			ffcfg.URLTTL = ac.RenderURLTTL
		}
		return assembly.NewFFmpegAssembler(artifacts, ffcfg, log), nil
	default:
		return nil, fmt.Errorf("assembly: unknown mode %q", ac.Mode)
	}
}

// ProvideAudioProber creates the audio duration prober when enabled.
func ProvideAudioProber(cfg *config.Config) outbound.AudioProberPort {
	if !cfg.Assembly.ProbeAudio {
		return nil
	}
	return assembly.NewProber()
}

// ProvideMessagePort creates the Kafka producer when brokers are configured.
func ProvideMessagePort(cfg *config.Config) (outbound.MessagePort, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
		Timeout:  cfg.Kafka.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventBus creates the progress bus and registers its handlers.
func ProvideEventBus(cfg *config.Config, messages outbound.MessagePort, m *metrics.Metrics, log *zap.Logger) *events.Bus {
	bus := events.NewBus(log)
	bus.Register(events.NewLogHandler(log))
	bus.Register(events.NewHandlerFunc([]string{events.Wildcard}, func(_ context.Context, e events.Event) error {
		m.RecordProgressEvent(e.EventType())
		return nil
	}))
	if messages != nil {
		bus.Register(events.NewMessageHandler(messages, cfg.Kafka.ProgressTopic, cfg.Kafka.Timeout))
	}
	return bus
}

// ===== Domain Providers =====

// DomainSet provides domain services.
var DomainSet = wire.NewSet(
	ProvideGenerationConfig,
	ProvideStudioConfig,
	wire.Bind(new(generation.Observer), new(*metrics.Metrics)),
	wire.Struct(new(studio.Deps), "*"),
	studio.NewService,
)

// ProvideGenerationConfig maps configuration onto the scheduler settings.
func ProvideGenerationConfig(cfg *config.Config) *generation.Config {
	gc := generation.DefaultConfig()
	c := cfg.Generation

	if c.BatchSize > 0 {
		gc.DefaultBatchSize = c.BatchSize
	}
	if c.Cooldown > 0 {
		gc.DefaultCooldown = c.Cooldown
	}
	for k, v := range c.Cooldowns {
		gc.Cooldowns[k] = v
	}
	if c.Capacity > 0 {
		gc.DefaultCapacity = c.Capacity
	}
	for k, v := range c.Capacities {
		gc.Capacities[k] = v
	}
	if c.RateWindow > 0 {
		gc.RateWindow = c.RateWindow
	}
	if c.ProgressTick > 0 {
		gc.ProgressInterval = c.ProgressTick
	}
	if c.JobTimeout > 0 {
		gc.JobTimeout = c.JobTimeout
	}
	gc.MaxParallelJobs = c.MaxParallelJobs
	return gc
}

// ProvideStudioConfig maps configuration onto the studio settings.
func ProvideStudioConfig(cfg *config.Config) *studio.Config {
	sc := studio.DefaultConfig()
	c := cfg.Studio

	if c.VideoDuration > 0 {
		sc.VideoDuration = c.VideoDuration
	}
	if c.FallbackDuration > 0 {
		sc.FallbackDuration = c.FallbackDuration
	}
	if c.ManifestPrefix != "" {
		sc.ManifestPrefix = c.ManifestPrefix
	}
	if c.ManifestURLTTL > 0 {
		sc.ManifestURLTTL = c.ManifestURLTTL
	}
	if c.RunRetention > 0 {
		sc.RunRetention = c.RunRetention
	}
	if c.SubscriberBuffer > 0 {
		sc.SubscriberBuffer = c.SubscriberBuffer
	}
	return sc
}

// ===== Handler Providers =====

// HandlerSet provides HTTP handlers.
var HandlerSet = wire.NewSet(
	wire.Bind(new(studiohttp.StudioService), new(*studio.Service)),
	studiohttp.NewHandler,
)

// AppSet is the full provider graph.
var AppSet = wire.NewSet(
	InfraSet,
	AdapterSet,
	DomainSet,
	HandlerSet,
)
