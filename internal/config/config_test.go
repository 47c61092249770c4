// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"strings"
	"testing"
	"time"
)

// configEnv lists every environment variable Load reads.
var configEnv = []string{
	"APP_HOST", "APP_PORT", "APP_ENV",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"CACHE_DRIVER", "CACHE_TTL",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD", "VALKEY_DB",
	"NATS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"WRITE_RATE_LIMIT", "WRITE_RATE_BURST",
	"SEED_ADMIN_PASSWORD",
}

// clearEnv sets every variable Load reads to empty, which envOrDefault
// treats the same as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}

	check("Host", cfg.Host, "0.0.0.0")
	check("Port", cfg.Port, "8080")
	check("Env", cfg.Env, "development")
	check("DBHost", cfg.DBHost, "localhost")
	check("DBPort", cfg.DBPort, "5432")
	check("DBUser", cfg.DBUser, "quillpress")
	check("DBPassword", cfg.DBPassword, "changeme")
	check("DBName", cfg.DBName, "quillpress")
	check("CacheDriver", cfg.CacheDriver, CacheValkey)
	check("ValkeyHost", cfg.ValkeyHost, "localhost")
	check("ValkeyPort", cfg.ValkeyPort, "6379")
	check("ValkeyPassword", cfg.ValkeyPassword, "")
	check("NATSURL", cfg.NATSURL, "")
	check("OTLPEndpoint", cfg.OTLPEndpoint, "")

	if cfg.CacheTTL != 0 {
		t.Errorf("CacheTTL = %v, want 0", cfg.CacheTTL)
	}
	if cfg.ValkeyDB != 0 {
		t.Errorf("ValkeyDB = %d, want 0", cfg.ValkeyDB)
	}
	if cfg.WriteRateLimit != 5 || cfg.WriteRateBurst != 10 {
		t.Errorf("write rate = %v/%d, want 5/10", cfg.WriteRateLimit, cfg.WriteRateBurst)
	}
}

// TestLoad_EnvOverrides verifies that every environment variable properly
// overrides the default value.
func TestLoad_EnvOverrides(t *testing.T) {
	overrides := map[string]string{
		"APP_HOST":                    "127.0.0.1",
		"APP_PORT":                    "9090",
		"APP_ENV":                     "testing",
		"POSTGRES_HOST":               "db.example.com",
		"POSTGRES_PORT":               "5433",
		"POSTGRES_USER":               "testuser",
		"POSTGRES_PASSWORD":           "testpass",
		"POSTGRES_DB":                 "testdb",
		"CACHE_DRIVER":                "memory",
		"CACHE_TTL":                   "90s",
		"VALKEY_HOST":                 "cache.example.com",
		"VALKEY_PORT":                 "6380",
		"VALKEY_PASSWORD":             "cachepass",
		"VALKEY_DB":                   "2",
		"NATS_URL":                    "nats://bus.example.com:4222",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "http://collector:4318",
		"WRITE_RATE_LIMIT":            "0.5",
		"WRITE_RATE_BURST":            "3",
		"SEED_ADMIN_PASSWORD":         "admin-secret",
	}

	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	check := func(field, got, want string) {
		t.Helper()
		if got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}

	check("Host", cfg.Host, "127.0.0.1")
	check("Port", cfg.Port, "9090")
	check("Env", cfg.Env, "testing")
	check("DBHost", cfg.DBHost, "db.example.com")
	check("DBPort", cfg.DBPort, "5433")
	check("DBUser", cfg.DBUser, "testuser")
	check("DBPassword", cfg.DBPassword, "testpass")
	check("DBName", cfg.DBName, "testdb")
	check("CacheDriver", cfg.CacheDriver, "memory")
	check("ValkeyHost", cfg.ValkeyHost, "cache.example.com")
	check("ValkeyPort", cfg.ValkeyPort, "6380")
	check("ValkeyPassword", cfg.ValkeyPassword, "cachepass")
	check("NATSURL", cfg.NATSURL, "nats://bus.example.com:4222")
	check("OTLPEndpoint", cfg.OTLPEndpoint, "http://collector:4318")
	check("SeedAdminPassword", cfg.SeedAdminPassword, "admin-secret")

	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.CacheTTL)
	}
	if cfg.ValkeyDB != 2 {
		t.Errorf("ValkeyDB = %d, want 2", cfg.ValkeyDB)
	}
	if cfg.ValkeyAddr() != "cache.example.com:6380" {
		t.Errorf("ValkeyAddr() = %q", cfg.ValkeyAddr())
	}
	if cfg.WriteRateLimit != 0.5 || cfg.WriteRateBurst != 3 {
		t.Errorf("write rate = %v/%d, want 0.5/3", cfg.WriteRateLimit, cfg.WriteRateBurst)
	}
}

// TestLoad_InvalidValues verifies that malformed values are reported with
// the variable name.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{key: "CACHE_DRIVER", value: "memcached"},
		{key: "CACHE_TTL", value: "soon"},
		{key: "VALKEY_DB", value: "one"},
		{key: "VALKEY_DB", value: "16"},
		{key: "WRITE_RATE_LIMIT", value: "fast"},
		{key: "WRITE_RATE_LIMIT", value: "0"},
		{key: "WRITE_RATE_BURST", value: "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() should reject the value")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should mention %s, got: %v", tt.key, err)
			}
		})
	}
}

// TestLoad_ProductionRequiresPassword verifies that production mode rejects
// the default "changeme" password and accepts a real one.
func TestLoad_ProductionRequiresPassword(t *testing.T) {
	t.Run("rejects default password", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		// An empty POSTGRES_PASSWORD falls back to "changeme".
		t.Setenv("POSTGRES_PASSWORD", "")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() should return an error when production uses default password")
		}
		if !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
			t.Errorf("error should mention POSTGRES_PASSWORD, got: %v", err)
		}
	})

	t.Run("rejects explicit changeme", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "changeme")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() should return an error when production uses 'changeme'")
		}
	})

	t.Run("rejects default admin password", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cur3-pr0d-p@ssw0rd")
		t.Setenv("SEED_ADMIN_PASSWORD", "")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "SEED_ADMIN_PASSWORD") {
			t.Fatalf("Load() error = %v, want SEED_ADMIN_PASSWORD mentioned", err)
		}
	})

	t.Run("accepts real password", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cur3-pr0d-p@ssw0rd")
		t.Setenv("SEED_ADMIN_PASSWORD", "adm1n-pr0d")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if cfg.DBPassword != "s3cur3-pr0d-p@ssw0rd" {
			t.Errorf("DBPassword = %q, want %q", cfg.DBPassword, "s3cur3-pr0d-p@ssw0rd")
		}
	})
}

func TestLoad_DefaultPasswordOutsideProduction(t *testing.T) {
	for _, env := range []string{"development", "testing", "staging"} {
		t.Run(env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", env)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() in %q mode: %v", env, err)
			}
			if cfg.IsDev() != (env == "development") {
				t.Errorf("IsDev() = %v in %q mode", cfg.IsDev(), env)
			}
		})
	}
}

func TestAddresses(t *testing.T) {
	cfg := Config{
		Host: "::1", Port: "443",
		DBUser: "admin", DBPassword: "h@ck&me!", DBHost: "10.0.0.5", DBPort: "5432", DBName: "blog",
		ValkeyHost: "::1", ValkeyPort: "6379",
	}

	tests := []struct {
		name, got, want string
	}{
		{"DSN", cfg.DSN(), "postgres://admin:h@ck&me!@10.0.0.5:5432/blog?sslmode=disable"},
		{"Addr", cfg.Addr(), "::1:443"},
		{"ValkeyAddr brackets ipv6", cfg.ValkeyAddr(), "[::1]:6379"},
		{"Addr without host", (&Config{Port: "8080"}).Addr(), ":8080"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestIsDevIsExact(t *testing.T) {
	for env, want := range map[string]bool{
		"development": true,
		"Development": false,
		"dev":         false,
		"":            false,
	} {
		if got := (&Config{Env: env}).IsDev(); got != want {
			t.Errorf("IsDev() with Env %q = %v, want %v", env, got, want)
		}
	}
}
