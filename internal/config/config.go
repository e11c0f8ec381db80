package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	AutoMigrate bool

	ServerPort     string
	BaseURL        string
	FrontendURL    string
	EnableHSTS     bool
	MaxRequestSize int64
	RequestTimeout time.Duration

	RedisURL       string
	CacheKeyPrefix string
	CacheTTL       time.Duration

	RabbitMQURL      string
	RabbitMQPrefetch int

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	TrendWindowDays int
	HotWindowDays   int
	RefreshDebounce time.Duration
	RefreshInterval time.Duration

	RatelimitRate        string
	AIRatelimitRate      string
	ConfigReloadInterval time.Duration

	OpenAIKey    string
	AIModel      string
	AIBaseURL    string
	AIMaxRetries int

	LogFormat       string
	ServerDebugMode bool
	WorkerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables. Values from .env
// files fill in variables that are not already set.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:     getEnvBool("ENABLE_HSTS", false),
		MaxRequestSize: int64(getEnvInt("MAX_REQUEST_SIZE", 1<<20)),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", "askdev:tags:"),
		CacheTTL:       getEnvDuration("TAG_CACHE_TTL", 10*time.Minute),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", ""),
		JWTAudience: getEnv("JWT_AUDIENCE", ""),

		TrendWindowDays: getEnvInt("TREND_WINDOW_DAYS", 30),
		HotWindowDays:   getEnvInt("HOT_WINDOW_DAYS", 14),
		RefreshDebounce: getEnvDuration("TREND_REFRESH_DEBOUNCE", 30*time.Second),
		RefreshInterval: getEnvDuration("TREND_REFRESH_INTERVAL", 5*time.Minute),

		RatelimitRate:        getEnv("RATELIMIT_RATE", "20-S"),
		AIRatelimitRate:      getEnv("AI_RATELIMIT_RATE", "10-M"),
		ConfigReloadInterval: getEnvDuration("CONFIG_RELOAD_INTERVAL", time.Minute),

		OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
		AIModel:      getEnv("AI_MODEL", ""),
		AIBaseURL:    getEnv("AI_BASE_URL", ""),
		AIMaxRetries: getEnvInt("AI_MAX_RETRIES", 2),

		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TrendWindowDays < 1 || cfg.HotWindowDays < 1 {
		return nil, fmt.Errorf("TREND_WINDOW_DAYS and HOT_WINDOW_DAYS must be positive")
	}

	return cfg, nil
}

// RequireQueue reports an error when no RabbitMQ URL is configured.
func (c *Config) RequireQueue() error {
	if c.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required to process trend refresh jobs")
	}
	return nil
}

// RequireAuth reports an error when tokens cannot be verified.
func (c *Config) RequireAuth() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to verify access tokens")
	}
	return nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
