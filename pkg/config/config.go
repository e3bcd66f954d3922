package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/LingByte/lingstorage-sdk-go"
	"github.com/code-100-precent/VoiceGate/pkg/cache"
	"github.com/code-100-precent/VoiceGate/pkg/embedstore"
	"github.com/code-100-precent/VoiceGate/pkg/logger"
	"github.com/code-100-precent/VoiceGate/pkg/utils"
)

// Config main configuration structure
type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Database DatabaseConfig   `mapstructure:"database"`
	Log      logger.LogConfig `mapstructure:"log"`
	Cache    cache.Config     `mapstructure:"cache"`
	Services ServicesConfig   `mapstructure:"services"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Name        string `env:"SERVER_NAME"`
	Addr        string `env:"ADDR"`
	Mode        string `env:"MODE"`
	StaticDir   string `env:"STATIC_DIR"`
	SSLEnabled  bool   `env:"SSL_ENABLED"`
	SSLCertFile string `env:"SSL_CERT_FILE"`
	SSLKeyFile  string `env:"SSL_KEY_FILE"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER"`
	DSN    string `env:"DSN"`
}

// ServicesConfig services configuration
type ServicesConfig struct {
	Embedder EmbedderConfig    `mapstructure:"embedder"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Stream   StreamConfig      `mapstructure:"stream"`
	Store    embedstore.Config `mapstructure:"store"`
}

// EmbedderConfig embedding service configuration
type EmbedderConfig struct {
	BaseURL    string        `env:"EMBEDDER_BASE_URL"`
	APIKey     string        `env:"EMBEDDER_API_KEY"`
	Timeout    time.Duration `env:"EMBEDDER_TIMEOUT"`
	Dimension  int           `env:"EMBEDDER_DIMENSION"`
	LogEnabled bool          `env:"EMBEDDER_LOG_ENABLED"`
}

// StorageConfig object storage configuration
type StorageConfig struct {
	Enabled   bool   `env:"LINGSTORAGE_ENABLED"`
	BaseURL   string `env:"LINGSTORAGE_BASE_URL"`
	APIKey    string `env:"LINGSTORAGE_API_KEY"`
	APISecret string `env:"LINGSTORAGE_API_SECRET"`
	Bucket    string `env:"LINGSTORAGE_BUCKET"`
}

// StreamConfig streaming endpoint configuration
type StreamConfig struct {
	MaxConnections int           `env:"MAX_CONNECTIONS"`
	UploadDir      string        `env:"UPLOAD_DIR"`
	FFmpegPath     string        `env:"FFMPEG_PATH"`
	ListCacheTTL   time.Duration `env:"VOICE_LIST_CACHE_TTL"`
}

var GlobalConfig *Config

var GlobalStore *lingstorage.Client

func Load() error {
	// 1. Load .env file based on environment (don't error if it doesn't exist, use default values)
	env := os.Getenv("APP_ENV")
	err := utils.LoadEnv(env)
	if err != nil {
		// Only log when .env file doesn't exist, don't affect startup
		log.Printf("Note: .env file not found or failed to load: %v (using default values)", err)
	}

	// 2. Load global configuration
	GlobalConfig = &Config{
		Server: ServerConfig{
			Name:        getStringOrDefault("SERVER_NAME", "voicegate"),
			Addr:        getStringOrDefault("ADDR", ":5555"),
			Mode:        getStringOrDefault("MODE", "development"),
			StaticDir:   getStringOrDefault("STATIC_DIR", "./static"),
			SSLEnabled:  getBoolOrDefault("SSL_ENABLED", false),
			SSLCertFile: getStringOrDefault("SSL_CERT_FILE", ""),
			SSLKeyFile:  getStringOrDefault("SSL_KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver: getStringOrDefault("DB_DRIVER", "sqlite"),
			DSN:    getStringOrDefault("DSN", "./voicegate.db"),
		},
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		Cache: loadCacheConfig(),
		Services: ServicesConfig{
			Embedder: EmbedderConfig{
				BaseURL:    getStringOrDefault("EMBEDDER_BASE_URL", "http://localhost:8005"),
				APIKey:     getStringOrDefault("EMBEDDER_API_KEY", ""),
				Timeout:    parseDuration(getStringOrDefault("EMBEDDER_TIMEOUT", "30s"), 30*time.Second),
				Dimension:  getIntOrDefault("EMBEDDER_DIMENSION", 256),
				LogEnabled: getBoolOrDefault("EMBEDDER_LOG_ENABLED", true),
			},
			Storage: StorageConfig{
				Enabled:   getBoolOrDefault("LINGSTORAGE_ENABLED", false),
				BaseURL:   getStringOrDefault("LINGSTORAGE_BASE_URL", "https://api.lingstorage.com"),
				APIKey:    getStringOrDefault("LINGSTORAGE_API_KEY", ""),
				APISecret: getStringOrDefault("LINGSTORAGE_API_SECRET", ""),
				Bucket:    getStringOrDefault("LINGSTORAGE_BUCKET", "default"),
			},
			Stream: StreamConfig{
				MaxConnections: getIntOrDefault("MAX_CONNECTIONS", 5),
				UploadDir:      getStringOrDefault("UPLOAD_DIR", "./uploads"),
				FFmpegPath:     getStringOrDefault("FFMPEG_PATH", "ffmpeg"),
				ListCacheTTL:   parseDuration(getStringOrDefault("VOICE_LIST_CACHE_TTL", "5m"), 5*time.Minute),
			},
			Store: embedstore.Config{
				Type:          getStringOrDefault("EMBED_STORE_TYPE", "database"),
				RedisAddr:     getStringOrDefault("REDIS_ADDR", "localhost:6379"),
				RedisPassword: getStringOrDefault("REDIS_PASSWORD", ""),
				RedisDB:       getIntOrDefault("REDIS_DB", 0),
			},
		},
	}

	GlobalStore = nil
	if GlobalConfig.Services.Storage.Enabled {
		GlobalStore = lingstorage.NewClient(&lingstorage.Config{
			BaseURL:   GlobalConfig.Services.Storage.BaseURL,
			APIKey:    GlobalConfig.Services.Storage.APIKey,
			APISecret: GlobalConfig.Services.Storage.APISecret,
		})
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}

	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}

	if c.Server.SSLEnabled {
		if c.Server.SSLCertFile == "" || c.Server.SSLKeyFile == "" {
			return errors.New("SSL cert and key files are required when SSL is enabled")
		}
	}

	if c.Services.Stream.MaxConnections <= 0 {
		return errors.New("stream max connections must be positive")
	}

	if c.Services.Embedder.BaseURL == "" {
		return errors.New("embedder base URL is required")
	}

	return nil
}

// getStringOrDefault gets environment variable value, returns default if empty
func getStringOrDefault(key, defaultValue string) string {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getBoolOrDefault gets boolean environment variable value, returns default if empty
func getBoolOrDefault(key string, defaultValue bool) bool {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	return utils.GetBoolEnv(key)
}

// getIntOrDefault gets integer environment variable value, returns default if empty
func getIntOrDefault(key string, defaultValue int) int {
	value := utils.GetIntEnv(key)
	if value == 0 {
		return defaultValue
	}
	return int(value)
}

// getFloatOrDefault gets float environment variable value, returns default if empty
func getFloatOrDefault(key string, defaultValue float64) float64 {
	value := utils.GetEnv(key)
	if value == "" {
		return defaultValue
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return defaultValue
}

// parseDuration parses duration string with default fallback
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// loadCacheConfig loads cache configuration with all default values
func loadCacheConfig() cache.Config {
	cacheType := utils.GetEnv("CACHE_TYPE")
	if cacheType == "" {
		cacheType = "local"
	}
	redisAddr := utils.GetEnv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPoolSize := int(utils.GetIntEnv("REDIS_POOL_SIZE"))
	if redisPoolSize == 0 {
		redisPoolSize = 10
	}
	redisMinIdleConns := int(utils.GetIntEnv("REDIS_MIN_IDLE_CONNS"))
	if redisMinIdleConns == 0 {
		redisMinIdleConns = 5
	}
	return cache.Config{
		Type: cacheType,
		Redis: cache.RedisConfig{
			Addr:         redisAddr,
			Password:     utils.GetEnv("REDIS_PASSWORD"),
			DB:           int(utils.GetIntEnv("REDIS_DB")),
			PoolSize:     redisPoolSize,
			MinIdleConns: redisMinIdleConns,
			DialTimeout:  parseDuration(utils.GetEnv("REDIS_DIAL_TIMEOUT"), 5*time.Second),
			ReadTimeout:  parseDuration(utils.GetEnv("REDIS_READ_TIMEOUT"), 3*time.Second),
			WriteTimeout: parseDuration(utils.GetEnv("REDIS_WRITE_TIMEOUT"), 3*time.Second),
		},
		Local: cache.LocalConfig{
			DefaultExpiration: parseDuration(utils.GetEnv("LOCAL_CACHE_DEFAULT_EXPIRATION"), 5*time.Minute),
			CleanupInterval:   parseDuration(utils.GetEnv("LOCAL_CACHE_CLEANUP_INTERVAL"), 10*time.Minute),
		},
	}
}
