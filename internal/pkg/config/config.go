package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete service configuration
type Config struct {
	Environment string
	LogLevel    string

	Server   ServerConfig
	Pipeline PipelineConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Database DatabaseConfig
	Storage  StorageConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  []string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// PipelineConfig holds settings for the normalization pipeline
type PipelineConfig struct {
	// DictionaryPath is a JSON object of contraction -> replacement. Empty uses the embedded default.
	DictionaryPath string
	BatchWorkers   int
	MaxTextBytes   int
	MaxBatchSize   int
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Backend      string // redis, memory or none
	TTL          time.Duration
	MemorySize   int
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  int
	ReadTimeout  int
	WriteTimeout int
	PoolSize     int
	MinIdleConns int
}

// QueueConfig holds asynq settings
type QueueConfig struct {
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	DialTimeout    int
	ReadTimeout    int
	WriteTimeout   int
	Concurrency    int
	StrictPriority bool
	MaxRetries     int
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	LogLevel        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int
	MaxConnIdleTime int
}

// StorageConfig holds local file storage settings
type StorageConfig struct {
	BasePath      string
	MaxFileSizeMB int64
}

// Cache backends
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"
)

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using environment variables only")
		}
	}

	v := viper.New()
	setDefaults(v)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			MaxBodyBytes:    v.GetInt64("SERVER_MAX_BODY_BYTES"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Pipeline: PipelineConfig{
			DictionaryPath: v.GetString("DICTIONARY_PATH"),
			BatchWorkers:   v.GetInt("BATCH_WORKERS"),
			MaxTextBytes:   v.GetInt("MAX_TEXT_BYTES"),
			MaxBatchSize:   v.GetInt("MAX_BATCH_SIZE"),
		},
		Cache: CacheConfig{
			Backend:      strings.ToLower(v.GetString("CACHE_BACKEND")),
			TTL:          v.GetDuration("CACHE_TTL"),
			MemorySize:   v.GetInt("CACHE_MEMORY_SIZE"),
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetInt("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			DialTimeout:  v.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetInt("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		Queue: QueueConfig{
			RedisHost:      v.GetString("REDIS_HOST"),
			RedisPort:      v.GetInt("REDIS_PORT"),
			RedisPassword:  v.GetString("REDIS_PASSWORD"),
			RedisDB:        v.GetInt("QUEUE_REDIS_DB"),
			DialTimeout:    v.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:    v.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("REDIS_WRITE_TIMEOUT"),
			Concurrency:    v.GetInt("WORKER_CONCURRENCY"),
			StrictPriority: v.GetBool("WORKER_STRICT_PRIORITY"),
			MaxRetries:     v.GetInt("WORKER_MAX_RETRIES"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
			MaxConnections:  v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:  v.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime: v.GetInt("DB_MAX_CONN_LIFETIME_MIN"),
			MaxConnIdleTime: v.GetInt("DB_MAX_CONN_IDLE_TIME_MIN"),
		},
		Storage: StorageConfig{
			BasePath:      v.GetString("STORAGE_PATH"),
			MaxFileSizeMB: v.GetInt64("MAX_FILE_SIZE_MB"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SERVER_MAX_BODY_BYTES", 10<<20)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "15s")

	// Pipeline defaults
	v.SetDefault("DICTIONARY_PATH", "")
	v.SetDefault("BATCH_WORKERS", 8)
	v.SetDefault("MAX_TEXT_BYTES", 64*1024)
	v.SetDefault("MAX_BATCH_SIZE", 1000)

	// Cache defaults
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("CACHE_MEMORY_SIZE", 10000)

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("QUEUE_REDIS_DB", 1)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	v.SetDefault("REDIS_READ_TIMEOUT", 3)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)

	// Worker defaults
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("WORKER_STRICT_PRIORITY", false)
	v.SetDefault("WORKER_MAX_RETRIES", 3)

	// Database defaults
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "preprocessing")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_LOG_LEVEL", "silent")
	v.SetDefault("DB_MAX_CONNECTIONS", 20)
	v.SetDefault("DB_MIN_CONNECTIONS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME_MIN", 30)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME_MIN", 5)

	// File processing defaults
	v.SetDefault("STORAGE_PATH", "/tmp/preprocessing")
	v.SetDefault("MAX_FILE_SIZE_MB", 100)
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Pipeline.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.Pipeline.BatchWorkers)
	}
	if c.Pipeline.MaxTextBytes < 0 {
		return fmt.Errorf("MAX_TEXT_BYTES must be non-negative, got %d", c.Pipeline.MaxTextBytes)
	}
	if c.Pipeline.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1, got %d", c.Pipeline.MaxBatchSize)
	}

	switch c.Cache.Backend {
	case CacheBackendRedis, CacheBackendMemory, CacheBackendNone:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of redis, memory, none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendMemory && c.Cache.MemorySize < 1 {
		return fmt.Errorf("CACHE_MEMORY_SIZE must be at least 1 for the memory cache")
	}

	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.Queue.Concurrency)
	}
	if c.Storage.BasePath == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}

	return nil
}

// Address returns the host:port the HTTP server listens on
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the cache redis address
func (c *CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the libpq connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LogConfig logs the configuration (hiding sensitive data)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.String("environment", c.Environment),
		slog.String("server", c.Server.Address()),
		slog.String("dictionary", dictionarySource(c.Pipeline.DictionaryPath)),
		slog.Int("batch_workers", c.Pipeline.BatchWorkers),
		slog.String("cache_backend", c.Cache.Backend),
		slog.String("redis", c.Cache.RedisAddr()),
		slog.String("database", fmt.Sprintf("%s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Database)),
		slog.Bool("database_password_set", c.Database.Password != ""),
		slog.Int("worker_concurrency", c.Queue.Concurrency),
		slog.String("storage_path", c.Storage.BasePath),
	)
}

func dictionarySource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
