package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Log        LogConfig        `mapstructure:"log"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Generation GenerationConfig `mapstructure:"generation"`
	Studio     StudioConfig     `mapstructure:"studio"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Assembly   AssemblyConfig   `mapstructure:"assembly"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// StorageConfig holds object storage configuration. An empty bucket
// disables manifest and render uploads.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// KafkaConfig holds progress event streaming configuration.
type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	ClientID      string        `mapstructure:"client_id"`
	ProgressTopic string        `mapstructure:"progress_topic"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GenerationConfig holds batch scheduling configuration.
type GenerationConfig struct {
	BatchSize       int                      `mapstructure:"batch_size"`
	Cooldown        time.Duration            `mapstructure:"cooldown"`
	Cooldowns       map[string]time.Duration `mapstructure:"cooldowns"`
	Capacity        int                      `mapstructure:"capacity"`
	Capacities      map[string]int           `mapstructure:"capacities"`
	RateWindow      time.Duration            `mapstructure:"rate_window"`
	ProgressTick    time.Duration            `mapstructure:"progress_tick"`
	JobTimeout      time.Duration            `mapstructure:"job_timeout"`
	MaxParallelJobs int                      `mapstructure:"max_parallel_jobs"`
	// LimiterBackend is "memory" or "redis".
	LimiterBackend string `mapstructure:"limiter_backend"`
}

// StudioConfig holds editing defaults.
type StudioConfig struct {
	VideoDuration    float64       `mapstructure:"video_duration"`
	FallbackDuration float64       `mapstructure:"fallback_duration"`
	ManifestPrefix   string        `mapstructure:"manifest_prefix"`
	ManifestURLTTL   time.Duration `mapstructure:"manifest_url_ttl"`
	RunRetention     time.Duration `mapstructure:"run_retention"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
}

// ProvidersConfig holds media provider configuration.
type ProvidersConfig struct {
	DefaultImage string                `mapstructure:"default_image"`
	DefaultVideo string                `mapstructure:"default_video"`
	Images       []ImageProviderConfig `mapstructure:"images"`
	Videos       []VideoProviderConfig `mapstructure:"videos"`
	Breaker      BreakerConfig         `mapstructure:"breaker"`
}

// ImageProviderConfig configures one OpenAI-compatible image endpoint.
type ImageProviderConfig struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
	Quality string `mapstructure:"quality"`
	Style   string `mapstructure:"style"`
}

// VideoProviderConfig configures one polled video endpoint.
type VideoProviderConfig struct {
	Name            string        `mapstructure:"name"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	AspectRatio     string        `mapstructure:"aspect_ratio"`
	DefaultDuration float64       `mapstructure:"default_duration"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// BreakerConfig holds per-provider circuit breaker settings.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
}

// AssemblyConfig selects the video assembler.
type AssemblyConfig struct {
	// Mode is "http", "ffmpeg" or "none".
	Mode         string        `mapstructure:"mode"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	FFmpegBinary string        `mapstructure:"ffmpeg_binary"`
	WorkDir      string        `mapstructure:"work_dir"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	FPS          int           `mapstructure:"fps"`
	RenderPrefix string        `mapstructure:"render_prefix"`
	RenderURLTTL time.Duration `mapstructure:"render_url_ttl"`
	ProbeAudio   bool          `mapstructure:"probe_audio"`
}

// Load loads configuration from .env, the config file and the environment.
// Environment keys use the REELGEN_ prefix with "." replaced by "_",
// e.g. REELGEN_GENERATION_BATCH_SIZE.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/reelgen")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("REELGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets and lists that do not map cleanly onto nested keys.
	if password := os.Getenv("REELGEN_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("REELGEN_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("REELGEN_STORAGE_SECRET_KEY"); key != "" {
		cfg.Storage.SecretAccessKey = key
	}
	if key := os.Getenv("REELGEN_OPENAI_API_KEY"); key != "" {
		for i := range cfg.Providers.Images {
			if cfg.Providers.Images[i].Name == "openai" && cfg.Providers.Images[i].APIKey == "" {
				cfg.Providers.Images[i].APIKey = key
			}
		}
	}
	if s := os.Getenv("REELGEN_KAFKA_BROKERS"); s != "" {
		cfg.Kafka.Brokers = parseCommaSeparatedList(s)
	}
	if s := os.Getenv("REELGEN_CORS_ALLOWED_ORIGINS"); s != "" {
		cfg.CORS.AllowedOrigins = parseCommaSeparatedList(s)
	}

	return &cfg, nil
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	// SSE progress streams stay open for a whole run.
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "reelgen")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 30*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 180*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.region", "auto")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.client_id", "reelgen")
	v.SetDefault("kafka.progress_topic", "reelgen.generation.progress")
	v.SetDefault("kafka.timeout", 10*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})

	// Generation defaults
	v.SetDefault("generation.batch_size", 5)
	v.SetDefault("generation.cooldown", 60*time.Second)
	v.SetDefault("generation.capacity", 10)
	v.SetDefault("generation.rate_window", time.Minute)
	v.SetDefault("generation.progress_tick", time.Second)
	v.SetDefault("generation.job_timeout", 5*time.Minute)
	v.SetDefault("generation.max_parallel_jobs", 0)
	v.SetDefault("generation.limiter_backend", "memory")

	// Studio defaults
	v.SetDefault("studio.video_duration", 3.0)
	v.SetDefault("studio.fallback_duration", 3.0)
	v.SetDefault("studio.manifest_prefix", "timelines")
	v.SetDefault("studio.manifest_url_ttl", time.Hour)
	v.SetDefault("studio.run_retention", time.Hour)
	v.SetDefault("studio.subscriber_buffer", 128)

	// Provider defaults
	v.SetDefault("providers.default_image", "openai")
	v.SetDefault("providers.images", []map[string]any{{"name": "openai"}})
	v.SetDefault("providers.breaker.enabled", true)
	v.SetDefault("providers.breaker.failure_threshold", 5)
	v.SetDefault("providers.breaker.interval", 60*time.Second)
	v.SetDefault("providers.breaker.timeout", 30*time.Second)
	v.SetDefault("providers.breaker.max_requests", 1)

	// Assembly defaults
	v.SetDefault("assembly.mode", "none")
	v.SetDefault("assembly.ffmpeg_binary", "ffmpeg")
	v.SetDefault("assembly.width", 1080)
	v.SetDefault("assembly.height", 1920)
	v.SetDefault("assembly.fps", 30)
	v.SetDefault("assembly.render_prefix", "renders")
	v.SetDefault("assembly.render_url_ttl", 24*time.Hour)
	v.SetDefault("assembly.probe_audio", false)
}
