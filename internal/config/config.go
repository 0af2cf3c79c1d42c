package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Aligner   AlignerConfig
	Media     MediaConfig
	Subtitle  SubtitleConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds API authentication configuration
type AuthConfig struct {
	APIKey    string
	JWTSecret string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
	JobTTL   time.Duration
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
	URLExpiry       time.Duration
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Enabled  bool
	Prefetch int
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// AlignerConfig holds forced-alignment configuration
type AlignerConfig struct {
	PythonPath       string
	Module           string
	Timeout          time.Duration
	DefaultLanguage  string
	MaxWordsPerChunk int
	MaxChars         int
	MaxLines         int
}

// MediaConfig holds ffmpeg and download configuration
type MediaConfig struct {
	FFmpegPath       string
	FFprobePath      string
	TempDir          string
	MaxVideoDuration float64
	DownloadTimeout  time.Duration
}

// SubtitleConfig holds subtitle rendering configuration
type SubtitleConfig struct {
	DefaultPreset string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TracingConfig holds Jaeger configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// MetricsConfig holds Prometheus server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// RateLimitConfig holds per-client rate limit configuration
type RateLimitConfig struct {
	Enabled bool
	RPS     int
	Burst   int
}

// Load reads configuration from file and environment variables.
// A .env file next to the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns a configuration populated only from defaults and the environment
func Default() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var config Config
	// Defaults always decode cleanly
	_ = v.Unmarshal(&config)
	return &config
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "300s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Auth defaults
	v.SetDefault("auth.apiKey", "change-me-in-production")
	v.SetDefault("auth.jwtSecret", "")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cacheTTL", "1h")
	v.SetDefault("redis.jobTTL", "24h")

	// Storage defaults
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "renders")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)
	v.SetDefault("storage.urlExpiry", "1h")

	// Queue defaults
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.prefetch", 1)
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	// Aligner defaults
	v.SetDefault("aligner.pythonPath", "python3")
	v.SetDefault("aligner.module", "aeneas.tools.execute_task")
	v.SetDefault("aligner.timeout", "120s")
	v.SetDefault("aligner.defaultLanguage", "eng")
	v.SetDefault("aligner.maxWordsPerChunk", 5)
	v.SetDefault("aligner.maxChars", 80)
	v.SetDefault("aligner.maxLines", 2)

	// Media defaults
	v.SetDefault("media.ffmpegPath", "ffmpeg")
	v.SetDefault("media.ffprobePath", "ffprobe")
	v.SetDefault("media.tempDir", "/tmp/subtitle-service")
	v.SetDefault("media.maxVideoDuration", 60)
	v.SetDefault("media.downloadTimeout", "60s")

	// Subtitle defaults
	v.SetDefault("subtitle.defaultPreset", "tiktok_clean")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "subtitler")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 5)
	v.SetDefault("rateLimit.burst", 10)
}
