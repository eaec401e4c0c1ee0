package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Storage
	StoreBackend string // "file" (default), "sqlite" or "postgres"
	DataDir      string // channel logs for the file backend
	SQLitePath   string
	DatabaseURL  string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Realtime
	AllowedOrigins []string // websocket origins; empty allows all

	// Rate limiting (requires Redis)
	RedisURL           string
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		StoreBackend:     getEnv("STORE_BACKEND", "file"),
		DataDir:          getEnv("DATA_DIR", "data/channels"),
		SQLitePath:       os.Getenv("SQLITE_PATH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		UploadDir:        getEnv("UPLOAD_DIR", "data/uploads"),
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 10*1024*1024),
		RedisURL:         os.Getenv("REDIS_URL"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		AutoBlockEnabled: getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
	}

	cfg.RateLimitWhitelist = splitList(os.Getenv("RATE_LIMIT_WHITELIST"))

	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		panic("DATABASE_URL is required with STORE_BACKEND=postgres")
	}
	// In production, require redis-backed rate limiting
	if cfg.Env == "production" && cfg.RedisURL == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
