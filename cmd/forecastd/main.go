// Command forecastd serves hyperlocal field forecasts over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hyperlocal-weather-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hyperlocal-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/adapter/mapbox"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/adapter/provider"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/cache"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/config"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	base := provider.NewBreaker(provider.NewSynthetic(clock), provider.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
		CallTimeout: cfg.ProviderTimeout,
	}, metrics, logger)

	opts := pipeline.Options{
		Clock:        clock,
		FieldTTL:     cfg.FieldCacheTTL,
		GridTTL:      cfg.GridCacheTTL,
		CacheSize:    cfg.CacheSize,
		SamplePoints: cfg.SamplePoints,
		Fanout:       cfg.Fanout,
		Metrics:      metrics,
		Logger:       logger,
	}

	// Elevation lookups are feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts.Elevation = mapbox.NewCachedElevation(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox elevation enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox elevation disabled, using terrain estimates")
	}

	if cfg.CacheBackend == config.CacheRedis {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		opts.FieldCache = cache.NewRedis[domain.HyperlocalForecast](client, "hwf:field:", cfg.FieldCacheTTL)
		opts.GridCache = cache.NewRedis[domain.HyperlocalForecast](client, "hwf:grid:", cfg.GridCacheTTL)
		logger.Info("redis forecast cache enabled", "addr", cfg.RedisAddr)
	}

	var writer *kafkaadapter.AlertWriter
	if cfg.AlertsEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, metrics, logger)
		opts.Publisher = writer
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	}

	engine := pipeline.New(base, opts)
	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, engine, logger)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
