package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/collision-query-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/collision-query-service/internal/adapter/kafka"
	"github.com/couchcryptid/collision-query-service/internal/adapter/mapbox"
	"github.com/couchcryptid/collision-query-service/internal/config"
	"github.com/couchcryptid/collision-query-service/internal/dataset"
	"github.com/couchcryptid/collision-query-service/internal/domain"
	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/pipeline"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocode cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher query.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		publisher = kafkaPublisher
		logger.Info("summary publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSummaryTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := dataset.Open(ctx, cfg.DataSource, dataset.Options{
		Table:     cfg.DataTable,
		KeyColumn: cfg.DataKeyColumn,
		Sheet:     cfg.XLSXSheet,
	})
	if err != nil {
		logger.Error("failed to open data source", "source", cfg.DataSource, "error", err)
		os.Exit(1)
	}

	store := dataset.NewStore()
	transformer := pipeline.NewTransformer(geocoder, logger)
	p := pipeline.New(source, transformer, store, logger, metrics, cfg.LoadBatchSize)
	engine := query.NewEngine(store, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, cfg.RecordsLimitMax, logger, metrics)

	// Start HTTP server. Liveness is served while the dataset loads.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the dataset. A failed load leaves the service unready.
	go func() {
		defer source.Close() //nolint:errcheck // read-only source
		if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dataset load failed", "source", cfg.DataSource, "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
