// The apiserver binary runs the catalog-insight HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	"github.com/vitrina-analytics/catalog-insight/internal/application/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/application/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/config"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/database/redis"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	httpserver "github.com/vitrina-analytics/catalog-insight/internal/interfaces/http"
	"github.com/vitrina-analytics/catalog-insight/internal/interfaces/http/handlers"
	"github.com/vitrina-analytics/catalog-insight/internal/interfaces/http/middleware"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: environment variables only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting catalog-insight API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	var (
		appMetrics *prometheus.AppMetrics
		collector  prometheus.MetricsCollector
	)
	if cfg.Metrics.Enabled {
		var err error
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace: cfg.Metrics.Namespace,
		}, logger)
		if err != nil {
			return err
		}
		appMetrics = prometheus.NewAppMetrics(collector)
	}

	store, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses:          cfg.OpenSearch.Addresses,
		Username:           cfg.OpenSearch.User,
		Password:           cfg.OpenSearch.Password,
		InsecureSkipVerify: cfg.OpenSearch.InsecureSkipVerify,
		MaxRetries:         cfg.OpenSearch.MaxRetries,
		RequestTimeout:     cfg.OpenSearch.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher := opensearch.NewSearcher(store, opensearch.SearcherConfig{}, logger)
	indexer := opensearch.NewIndexer(store, opensearch.IndexerConfig{
		BulkBatchSize: cfg.OpenSearch.BulkBatchSize,
	}, logger)

	productsIndex := cfg.OpenSearch.ProductsIndexName()
	statsIndex := cfg.OpenSearch.DailyStatsIndexName()
	incidentsIndex := cfg.OpenSearch.IncidentsIndexName()

	productRepo := opensearch.NewProductRepository(indexer, productsIndex, logger)
	statsRepo := opensearch.NewStatsRepository(searcher, indexer, statsIndex, logger)
	incidentRepo := opensearch.NewIncidentRepository(searcher, indexer, incidentsIndex, logger)

	catalogSvc := catalog.NewService(productRepo, statsRepo, mining.NewExtractor(), catalog.Config{
		ProductURLTemplate: cfg.Ingest.ProductURLTemplate,
	}, logger)
	incidentSvc := incident.NewService(incidentRepo, logger)
	analyticsSvc := analytics.NewService(searcher, analytics.Config{
		IncidentsIndex: incidentsIndex,
		ProductsIndex:  productsIndex,
	}, logger)

	checkers := []handlers.HealthChecker{
		handlers.NewChecker("opensearch", store.Ping),
	}

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		cache, err := redis.NewClient(&redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return err
		}
		defer cache.Close()

		limiter = redis.NewFixedWindowLimiter(cache, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, logger)
		checkers = append(checkers, handlers.NewChecker("redis", cache.Ping))
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ProductHandler:   handlers.NewProductHandler(catalogSvc, appMetrics, logger),
		IncidentHandler:  handlers.NewIncidentHandler(incidentSvc, appMetrics, logger),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc, logger),
		HealthHandler:    handlers.NewHealthHandler(version, checkers...),
		RateLimiter:      limiter,
		Logger:           logger,
		Metrics:          appMetrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
		Mode:             cfg.Server.Mode,
	})

	srv := httpserver.NewServer(cfg.Server, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
