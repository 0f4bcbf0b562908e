package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Forecast cache configuration.
	FieldCacheTTL time.Duration
	GridCacheTTL  time.Duration
	CacheBackend  string
	CacheSize     int
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Base weather provider resilience.
	ProviderTimeout    time.Duration
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration

	// Microclimate analysis.
	SamplePoints int
	Fanout       int

	// Mapbox elevation configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Alert publishing.
	KafkaBrokers    []string
	KafkaAlertTopic string
	AlertsEnabled   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CacheBackend:    sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		RedisAddr:       sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "weather-alerts"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"FIELD_CACHE_TTL", "10m", &cfg.FieldCacheTTL},
		{"GRID_CACHE_TTL", "30m", &cfg.GridCacheTTL},
		{"PROVIDER_TIMEOUT", "5s", &cfg.ProviderTimeout},
		{"BREAKER_OPEN_TIMEOUT", "30s", &cfg.BreakerOpenTimeout},
		{"MAPBOX_TIMEOUT", "5s", &cfg.MapboxTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		def int
		min int
		dst *int
	}{
		{"CACHE_SIZE", 5000, 1, &cfg.CacheSize},
		{"REDIS_DB", 0, 0, &cfg.RedisDB},
		{"BREAKER_MAX_FAILURES", 5, 1, &cfg.BreakerMaxFailures},
		{"MICROCLIMATE_SAMPLE_POINTS", 20, 1, &cfg.SamplePoints},
		{"MICROCLIMATE_FANOUT", 5, 1, &cfg.Fanout},
		{"MAPBOX_CACHE_SIZE", 1000, 1, &cfg.MapboxCacheSize},
	}
	for _, n := range ints {
		if *n.dst, err = parseInt(n.key, n.def, n.min); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	cfg.MapboxEnabled = boolFlag("MAPBOX_ENABLED", cfg.MapboxToken != "")
	cfg.AlertsEnabled = boolFlag("ALERTS_ENABLED", len(cfg.KafkaBrokers) > 0)

	if cfg.CacheBackend != CacheMemory && cfg.CacheBackend != CacheRedis {
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be %s or %s", cfg.CacheBackend, CacheMemory, CacheRedis)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.AlertsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.AlertsEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERT_TOPIC is required when alerts are enabled")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, def, minValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minValue {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minValue)
	}
	return n, nil
}

func boolFlag(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
