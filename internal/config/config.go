package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Market   MarketConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// MarketConfig holds market data retrieval configuration
type MarketConfig struct {
	RequestTimeout    time.Duration // per-request timeout for quote lookups
	MaxAttempts       int           // attempts per lookup, including the first
	RetryBackoff      time.Duration // initial backoff between retry attempts
	ForwardWindowDays int           // trading sessions searched after an ex-date
	Prefetch          int           // concurrent per-event lookups during a simulation
	FxCacheTTL        time.Duration // lifetime of cached exchange rates
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/dividend_reinvest.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Market: MarketConfig{
			RequestTimeout:    getEnvDuration("MARKET_REQUEST_TIMEOUT", 10*time.Second),
			MaxAttempts:       getEnvInt("MARKET_MAX_ATTEMPTS", 3),
			RetryBackoff:      getEnvDuration("MARKET_RETRY_BACKOFF", 500*time.Millisecond),
			ForwardWindowDays: getEnvInt("MARKET_FORWARD_WINDOW_DAYS", 7),
			Prefetch:          getEnvInt("MARKET_PREFETCH", 4),
			FxCacheTTL:        getEnvDuration("MARKET_FX_CACHE_TTL", 24*time.Hour),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnvDuration gets a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
