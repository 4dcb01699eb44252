// Package config loads daemon configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr     string
	LogLevel string

	// Admin and Executor are the bootstrap administrative account and the
	// delegated broadcaster account.
	Admin    string
	Executor string

	// CatalogPath points at the chain catalog YAML.
	CatalogPath string

	// PrefsDBPath is the sqlite file for preference records. Empty selects
	// the in-memory store.
	PrefsDBPath string
	// AuditDatabaseURL is the postgres DSN for run records. Empty selects
	// the in-memory recorder.
	AuditDatabaseURL string

	// RedisAddr enables quote caching when non-empty.
	RedisAddr string

	// JWTSecret signs API bearer tokens.
	JWTSecret string

	RateLimitRPS   int
	RateLimitBurst int

	// OTLPEndpoint enables trace and metric export when non-empty.
	OTLPEndpoint string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:             getenv("COMPOUNDER_ADDR", ":8080"),
		LogLevel:         getenv("LOG_LEVEL", "INFO"),
		Admin:            os.Getenv("COMPOUNDER_ADMIN"),
		Executor:         os.Getenv("COMPOUNDER_EXECUTOR"),
		CatalogPath:      getenv("COMPOUNDER_CATALOG", "catalog.yaml"),
		PrefsDBPath:      os.Getenv("COMPOUNDER_PREFS_DB"),
		AuditDatabaseURL: os.Getenv("COMPOUNDER_AUDIT_DATABASE_URL"),
		RedisAddr:        os.Getenv("COMPOUNDER_REDIS_ADDR"),
		JWTSecret:        os.Getenv("COMPOUNDER_JWT_SECRET"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.RateLimitRPS, err = getint("COMPOUNDER_RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getint("COMPOUNDER_RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}

	if cfg.Admin == "" {
		return nil, fmt.Errorf("COMPOUNDER_ADMIN is required")
	}
	if cfg.Executor == "" {
		return nil, fmt.Errorf("COMPOUNDER_EXECUTOR is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
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
