// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Cache drivers.
const (
	CacheValkey = "valkey"
	CacheMemory = "memory"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Cache of blog aggregates: "valkey" or "memory".
	CacheDriver string
	CacheTTL    time.Duration

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// NATSURL enables forwarding of post events when set.
	NATSURL string

	// OTLPEndpoint enables trace export when set.
	OTLPEndpoint string

	// Write endpoints: sustained requests per second and burst, per client.
	WriteRateLimit float64
	WriteRateBurst int

	// SeedAdminPassword is the password of the seeded admin account. Empty
	// uses the development default.
	SeedAdminPassword string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value cannot be
// parsed or critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "quillpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "quillpress"),

		CacheDriver: envOrDefault("CACHE_DRIVER", CacheValkey),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		NATSURL:      os.Getenv("NATS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 0); err != nil {
		return nil, err
	}
	if cfg.ValkeyDB, err = intEnv("VALKEY_DB", 0); err != nil {
		return nil, err
	}
	if cfg.WriteRateLimit, err = floatEnv("WRITE_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.WriteRateBurst, err = intEnv("WRITE_RATE_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.CacheDriver != CacheValkey && cfg.CacheDriver != CacheMemory {
		return nil, fmt.Errorf("CACHE_DRIVER must be %q or %q, got %q", CacheValkey, CacheMemory, cfg.CacheDriver)
	}
	if cfg.ValkeyDB < 0 || cfg.ValkeyDB > 15 {
		return nil, fmt.Errorf("VALKEY_DB must be between 0 and 15, got %d", cfg.ValkeyDB)
	}
	if cfg.WriteRateLimit <= 0 || cfg.WriteRateBurst <= 0 {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT and WRITE_RATE_BURST must be positive")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.SeedAdminPassword == "" {
			return nil, fmt.Errorf("SEED_ADMIN_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// ValkeyAddr returns the host:port of the Valkey server.
func (c *Config) ValkeyAddr() string {
	return net.JoinHostPort(c.ValkeyHost, c.ValkeyPort)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
