// Package app wires the search service together: configuration, search
// engine, product database, Kafka consumers, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazario/search-service/internal/config"
	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/engine"
	esengine "github.com/bazario/search-service/internal/engine/elasticsearch"
	"github.com/bazario/search-service/internal/engine/memory"
	"github.com/bazario/search-service/internal/event"
	handler "github.com/bazario/search-service/internal/handler/http"
	"github.com/bazario/search-service/internal/repository/postgres"
	"github.com/bazario/search-service/internal/service"
	"github.com/bazario/search-service/pkg/database"
	"github.com/bazario/search-service/pkg/health"
	pkgkafka "github.com/bazario/search-service/pkg/kafka"
	"github.com/bazario/search-service/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

// App holds the running components of the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	consumers  []*pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp builds the full service graph from configuration. The Elasticsearch
// engine connects (and creates its index) during construction; startup fails
// fast when the cluster is unreachable.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	scoring := domain.ScoringPolicy{
		MinScore:      cfg.MinScore,
		RecencyOrigin: "now",
		RecencyOffset: cfg.RecencyOffset,
		RecencyScale:  cfg.RecencyScale,
		SearchDecay:   cfg.SearchDecay,
		SearchWeight:  cfg.SearchWeight,
		SuggestDecay:  cfg.SuggestDecay,
	}
	pricing := domain.PriceInferencePolicy{
		Floor:        cfg.PriceInferenceFloor,
		BandFraction: cfg.PriceInferenceBand,
	}

	healthHandler := health.NewHandler()

	var searchEngine engine.SearchEngine
	switch cfg.SearchEngine {
	case "memory":
		searchEngine = memory.New()
		logger.Warn("using in-memory search engine, index is not durable")
	default:
		esEngine, err := esengine.New(esengine.Config{
			URL:      cfg.ElasticsearchURL,
			Username: cfg.ElasticsearchUsername,
			Password: cfg.ElasticsearchPassword,
			Index:    cfg.ElasticsearchIndex,
			Timeout:  cfg.ElasticsearchTimeout,
		}, scoring, logger)
		if err != nil {
			return nil, fmt.Errorf("create elasticsearch engine: %w", err)
		}
		searchEngine = esEngine
		healthHandler.Register("elasticsearch", esEngine.Ping)
	}

	pgConfig := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to product database: %w", err)
	}
	database.RegisterPoolMetrics(pool, "search")

	productRepo := postgres.NewProductRepository(pool)
	healthHandler.Register("postgres", productRepo.Ping)
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	searchService := service.NewSearchService(searchEngine, productRepo, pricing, logger)
	eventConsumer := event.NewConsumer(searchService, logger)

	topics := []string{event.TopicProductCreated, event.TopicProductUpdated}
	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, eventConsumer.Handle, logger))
	}

	router := handler.NewRouter(searchService, healthHandler, middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		consumers:  consumers,
		httpServer: httpServer,
	}, nil
}

// Run starts the Kafka consumers and the HTTP server and blocks until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, len(a.consumers)+1)

	for _, consumer := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}(consumer)
	}

	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.httpServer.Addr),
			slog.String("engine", a.cfg.SearchEngine),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	case err := <-errCh:
		a.logger.Error("component failed", slog.String("error", err.Error()))
		shutdownErr := a.Shutdown()
		return errors.Join(err, shutdownErr)
	}
}

// Shutdown stops the HTTP server, the Kafka consumers, and the database pool.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}
	for _, consumer := range a.consumers {
		if err := consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka consumer close: %w", err))
		}
	}
	a.pool.Close()

	a.logger.Info("search service stopped")
	return errors.Join(errs...)
}
