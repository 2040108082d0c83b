package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer     string // Issuer claim for tokens (default: authledger)
	SigningKey string // Required in prod: base64-encoded HS256 key, >= 32 bytes decoded

	AccessTTL  time.Duration // Access token lifetime (AUTH_ACCESS_TOKEN_TTL_MS)
	RefreshTTL time.Duration // Refresh token lifetime (AUTH_REFRESH_TOKEN_TTL_MS)

	LedgerDriver string // Token ledger backend: sqlite (default) or redis
	DatabaseFile string // Path to SQLite database file (default: ./auth.db)
	RedisAddr    string // Redis address, required when LedgerDriver is redis
	PepperFile   string // Path to the password hashing pepper file (default: ./pepper)

	AdminEmail    string // With AdminPassword, seeds the first admin account on an empty store
	AdminPassword string // Initial admin password, only consulted while seeding

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Ledger sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "authledger"),
		SigningKey: os.Getenv("AUTH_SIGNING_KEY"),

		AccessTTL:  getEnvMillisOrDefault("AUTH_ACCESS_TOKEN_TTL_MS", 15*time.Minute),
		RefreshTTL: getEnvMillisOrDefault("AUTH_REFRESH_TOKEN_TTL_MS", 7*24*time.Hour),

		LedgerDriver: getEnvOrDefault("AUTH_LEDGER_DRIVER", "sqlite"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisAddr:    getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		AdminEmail:    os.Getenv("AUTH_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("AUTH_ADMIN_PASSWORD"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

// getEnvMillisOrDefault reads a TTL expressed as integer milliseconds.
func getEnvMillisOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
