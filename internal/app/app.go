package app

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	studiohttp "github.com/uniedit/reelgen/internal/adapter/inbound/http/studio"
	"github.com/uniedit/reelgen/internal/domain/studio"
	"github.com/uniedit/reelgen/internal/infra/config"
	"github.com/uniedit/reelgen/internal/port/outbound"
	"github.com/uniedit/reelgen/internal/utils/metrics"
	"github.com/uniedit/reelgen/internal/utils/middleware"
)

// App represents the application.
type App struct {
	config     *config.Config
	db         *gorm.DB
	redis      goredis.UniversalClient
	httpClient *http.Client
	artifacts  outbound.ArtifactStoragePort
	router     *gin.Engine
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// Domain services
	studio *studio.Service

	// HTTP handlers (inbound adapters)
	studioHandler *studiohttp.Handler

	// Cleanup functions, run in reverse order
	cleanupFuncs []func()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	zapLog, cleanup, err := ProvideZapLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:       cfg,
		logger:       zapLog,
		metrics:      ProvideMetrics(),
		cleanupFuncs: []func(){cleanup},
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	// Initialize router
	app.router = app.setupRouter()

	// Initialize domains with adapters
	if err := app.initDomains(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	return app, nil
}

// initInfrastructure initializes database, cache, storage and HTTP client.
func (a *App) initInfrastructure() error {
	db, cleanup, err := ProvideDatabase(a.config)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.db = db
	a.cleanupFuncs = append(a.cleanupFuncs, cleanup)

	// Redis is optional
	redisClient, cleanup := ProvideRedisClient(a.config, a.logger)
	a.redis = redisClient
	a.cleanupFuncs = append(a.cleanupFuncs, cleanup)

	a.httpClient = ProvideHTTPClient(a.config)

	artifacts, err := ProvideArtifactStorage(a.config)
	if err != nil {
		return err
	}
	a.artifacts = artifacts

	return nil
}

// initDomains initializes the studio domain with its adapters.
func (a *App) initDomains() error {
	registry, err := ProvideGeneratorRegistry(a.config, a.httpClient)
	if err != nil {
		return fmt.Errorf("init media providers: %w", err)
	}
	if len(registry.Names()) == 0 {
		a.logger.Warn("No media providers configured, generation requests will fail")
	}

	assembler, err := ProvideAssembler(a.config, a.httpClient, a.artifacts, a.logger)
	if err != nil {
		return err
	}

	messages, cleanup, err := ProvideMessagePort(a.config)
	if err != nil {
		return err
	}
	a.cleanupFuncs = append(a.cleanupFuncs, cleanup)

	genConfig := ProvideGenerationConfig(a.config)

	a.studio = studio.NewService(studio.Deps{
		Projects:   ProvideProjectDB(a.db),
		MediaSets:  ProvideMediaSetDB(a.db),
		Selections: ProvideSelectionDB(a.db),
		Generators: registry,
		Limiters:   ProvideLimiters(a.config, genConfig, a.redis, a.logger),
		Assembler:  assembler,
		Artifacts:  a.artifacts,
		Prober:     ProvideAudioProber(a.config),
		Publisher:  ProvideEventBus(a.config, messages, a.metrics, a.logger),
		Observer:   a.metrics,
	}, genConfig, ProvideStudioConfig(a.config), a.logger)

	a.studioHandler = studiohttp.NewHandler(a.studio)

	a.logger.Info("Studio initialized",
		zap.Strings("providers", registry.Names()),
		zap.String("assembly", a.config.Assembly.Mode),
		zap.String("limiter_backend", a.config.Generation.LimiterBackend),
		zap.Bool("kafka", messages != nil),
	)
	return nil
}

// setupRouter creates the gin engine with global middleware.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))

	r.Use(middleware.CORS(a.config.CORS.AllowedOrigins))

	// Health check endpoint
	r.GET("/health", a.health)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (a *App) health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// registerRoutes registers all HTTP routes.
func (a *App) registerRoutes() {
	v1 := a.router.Group("/api/v1")
	a.studioHandler.RegisterRoutes(v1)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop releases resources.
func (a *App) Stop() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
