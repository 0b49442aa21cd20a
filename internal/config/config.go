package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds ambient service settings, populated from environment
// variables. Operation inputs (table paths, merge/export options) are CLI
// flags, not environment; see cmd/etl.
type Config struct {
	LogLevel     string
	LogFormat    string
	RegistryPath string // optional YAML CRS registry override

	// MetricsAddr enables the /healthz and /metrics listener when set.
	// Empty (the default) keeps the tool fully offline.
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "text"),
		RegistryPath:    os.Getenv("REGISTRY_PATH"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("LOG_FORMAT must be \"text\" or \"json\"")
	}

	return cfg, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
