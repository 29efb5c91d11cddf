package app

import (
	"os"
	"strconv"
	"time"

	"github.com/inkwell/inkwell/pkg/jwtx"
)

type Config struct {
	TokenSecret string // Required: HS256 signing secret for all tokens
	Issuer      string // Optional: issuer claim for tokens (default: inkwell)

	AdminLogin    string // Optional: super-admin basic auth login (default: admin)
	AdminPassword string // Optional: super-admin basic auth password; admin routes stay closed when empty

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 10m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 20m)
	ConfirmationTTL time.Duration // Optional: registration code lifetime (default: 24h)
	RecoveryTTL     time.Duration // Optional: password recovery code lifetime (default: 1h)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./inkwell.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),
		Issuer:      getEnvOrDefault("AUTH_ISSUER", "inkwell"),

		AdminLogin:    getEnvOrDefault("ADMIN_LOGIN", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		ConfirmationTTL: getEnvDurationOrDefault("AUTH_CONFIRMATION_TTL", 24*time.Hour),
		RecoveryTTL:     getEnvDurationOrDefault("AUTH_RECOVERY_TTL", time.Hour),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "inkwell.db"),
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
