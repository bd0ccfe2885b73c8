package config

import (
	"os"
	"strconv"

	"github.com/SNUH-NSTRI/kcd2025-sub001/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Export   ExportConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. The URL is optional:
// without it the server runs with in-memory sessions only.
type DatabaseConfig struct {
	URL string
}

// SessionConfig holds workflow session defaults
type SessionConfig struct {
	DemoMode          bool
	DefaultDatasetID  string
	DefaultCohortSize int
}

// ExportConfig holds export output settings
type ExportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Session: SessionConfig{
			DemoMode:         os.Getenv("DEMO_MODE") == "true",
			DefaultDatasetID: envOr("DEFAULT_DATASET_ID", "mimic-iv"),
		},
		Export: ExportConfig{
			Dir: envOr("EXPORT_DIR", "exports"),
		},
	}

	size := envOr("DEFAULT_COHORT_SIZE", "200")
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return nil, errors.ConfigInvalid("DEFAULT_COHORT_SIZE must be a non-negative integer")
	}
	cfg.Session.DefaultCohortSize = n

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
