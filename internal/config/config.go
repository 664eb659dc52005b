package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	ServerPort       string
	TelegramToken    string
	StoreBackend     string
	DatabaseURL      string
	SQLitePath       string
	RedisURL         string
	RequireLocation  bool
	MaxLocationSkew  time.Duration
	PendingActionTTL time.Duration
	RosterPath       string
	LogLevel         string
}

func LoadConfig() (*Config, error) {
	maxSkew, err := time.ParseDuration(getEnv("MAX_LOCATION_SKEW", "5m"))
	if err != nil {
		return nil, errors.New("invalid MAX_LOCATION_SKEW format")
	}
	pendingTTL, err := time.ParseDuration(getEnv("PENDING_ACTION_TTL", "2m"))
	if err != nil {
		return nil, errors.New("invalid PENDING_ACTION_TTL format")
	}
	requireLocation, err := strconv.ParseBool(getEnv("REQUIRE_LOCATION", "true"))
	if err != nil {
		return nil, errors.New("invalid REQUIRE_LOCATION format")
	}

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		StoreBackend:     getEnv("STORE_BACKEND", BackendPostgres),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnv("SQLITE_PATH", "tracker.db"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RequireLocation:  requireLocation,
		MaxLocationSkew:  maxSkew,
		PendingActionTTL: pendingTTL,
		RosterPath:       os.Getenv("ROSTER_PATH"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is required")
	}
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_BACKEND is postgres")
		}
	case BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.MaxLocationSkew <= 0 {
		return nil, errors.New("MAX_LOCATION_SKEW must be positive")
	}
	if cfg.PendingActionTTL <= 0 {
		return nil, errors.New("PENDING_ACTION_TTL must be positive")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
