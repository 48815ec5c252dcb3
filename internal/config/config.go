package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DatabasePath string
	FilesDir     string

	// PDF fetching
	FetchTimeout   time.Duration
	MaxUploadBytes int64

	// Layout extraction windows. Tuned against the source document
	// template; a template change means retuning these.
	RowTolerance float64
	ColMin       float64
	ColMax       float64

	// Occupancy
	SessionLength time.Duration
	Period        string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("CMC_API_KEY"),

		DatabasePath: envOr("DB_PATH", "data/timetables.db"),
		FilesDir:     envOr("FILES_DIR", "data/files"),

		FetchTimeout:   envDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		RowTolerance: envFloat("LAYOUT_ROW_TOLERANCE", 45),
		ColMin:       envFloat("LAYOUT_COL_MIN", -10),
		ColMax:       envFloat("LAYOUT_COL_MAX", 190),

		SessionLength: envDuration("SESSION_LENGTH", 150*time.Minute),
		Period:        envOr("PERIOD", "2025/2026"),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = 150 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CMC_API_KEY is required")
	}
	if c.RowTolerance <= 0 {
		return fmt.Errorf("LAYOUT_ROW_TOLERANCE must be positive")
	}
	if c.ColMax <= c.ColMin {
		return fmt.Errorf("LAYOUT_COL_MAX must exceed LAYOUT_COL_MIN")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
