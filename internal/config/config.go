package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	SourceXLSX   = "xlsx"
	SourceSQLite = "sqlite"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	HTTPPort              int
	GRPCPort              int
	GRPCReflectionEnabled bool

	SourceBackend string
	WorkbookDir   string
	DBPath        string
	DBDriver      string

	CacheBackend string
	RedisAddr    string
	CacheTTL     time.Duration

	LayoutFile         string
	SelectionDebounce  time.Duration
	SessionIdleTimeout time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		HTTPPort:              getInt("HTTP_PORT", 8080),
		GRPCPort:              getInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getBool("GRPC_REFLECTION_ENABLED", false),

		SourceBackend: strings.ToLower(getEnv("SOURCE_BACKEND", SourceXLSX)),
		WorkbookDir:   getEnv("WORKBOOK_DIR", "./data"),
		DBPath:        getEnv("DB_PATH", "./data/dashboard.db"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite3"),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", CacheRedis)),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:     getDuration("CACHE_TTL", 15*time.Minute),

		LayoutFile:         getEnv("LAYOUT_FILE", ""),
		SelectionDebounce:  getDuration("SELECTION_DEBOUNCE", 500*time.Millisecond),
		SessionIdleTimeout: getDuration("SESSION_IDLE_TIMEOUT", 12*time.Hour),
	}
}

// Validate rejects backend names the app cannot wire.
func (c *Config) Validate() error {
	switch c.SourceBackend {
	case SourceXLSX, SourceSQLite:
	default:
		return fmt.Errorf("unknown SOURCE_BACKEND %q", c.SourceBackend)
	}
	switch c.CacheBackend {
	case CacheRedis, CacheMemory:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
