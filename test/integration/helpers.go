// Package integration exercises the full service stack against a live
// document store.  The suite is opt-in: every test is skipped unless
// INSIGHT_INTEGRATION_TEST=1 is set, so `go test ./...` stays green on
// machines without an OpenSearch instance.
//
// Each scenario provisions its own uniquely named indices and removes
// them on cleanup, so the suite can run repeatedly against a shared
// cluster without leftovers bleeding between runs.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	"github.com/vitrina-analytics/catalog-insight/internal/application/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/application/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/application/quality"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
)

const (
	// EnvIntegrationEnabled gates the whole package.
	EnvIntegrationEnabled = "INSIGHT_INTEGRATION_TEST"

	// EnvOpenSearchURL points the suite at a non-default store.
	EnvOpenSearchURL = "INSIGHT_TEST_OPENSEARCH_URL"

	// DefaultOpenSearchURL is used when EnvOpenSearchURL is unset.
	DefaultOpenSearchURL = "http://localhost:9200"

	// TestTimeout bounds a single scenario.
	TestTimeout = 60 * time.Second

	cleanupTimeout = 15 * time.Second
)

// SkipIfNoIntegration skips the calling test unless the integration
// gate is set.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("skipping integration test; set %s=1 to run", EnvIntegrationEnabled)
	}
}

// OpenSearchURL resolves the store address for this run.
func OpenSearchURL() string {
	if url := os.Getenv(EnvOpenSearchURL); url != "" {
		return url
	}
	return DefaultOpenSearchURL
}

// TestEnvironment wires the full stack over a disposable set of indices.
type TestEnvironment struct {
	Logger   logging.Logger
	Client   *opensearch.Client
	Searcher *opensearch.Searcher
	Indexer  *opensearch.Indexer

	ProductsIndex  string
	StatsIndex     string
	IncidentsIndex string

	Products  *opensearch.ProductRepository
	Stats     *opensearch.StatsRepository
	Incidents *opensearch.IncidentRepository

	Catalog   catalog.Service
	Incident  incident.Service
	Analytics analytics.Service
	Quality   quality.Service
}

// NewTestEnvironment connects to the store, creates uniquely named
// indices and registers their deletion on test cleanup.  The indexer is
// configured with wait_for refresh so every write, bulk included, is
// searchable by the time the call returns.  Once the integration gate
// is set an unreachable store fails the test instead of skipping it.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	SkipIfNoIntegration(t)

	logger := logging.NewNopLogger()

	client, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses:      []string{OpenSearchURL()},
		RequestTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		t.Fatalf("document store at %s unreachable: %v", OpenSearchURL(), err)
	}
	t.Cleanup(func() { _ = client.Close() })

	searcher := opensearch.NewSearcher(client, opensearch.SearcherConfig{}, logger)
	indexer := opensearch.NewIndexer(client, opensearch.IndexerConfig{
		RefreshPolicy: "wait_for",
	}, logger)

	prefix := fmt.Sprintf("it-%d-", time.Now().UnixNano())
	env := &TestEnvironment{
		Logger:         logger,
		Client:         client,
		Searcher:       searcher,
		Indexer:        indexer,
		ProductsIndex:  prefix + "products",
		StatsIndex:     prefix + "sku-daily-stats",
		IncidentsIndex: prefix + "supplier-incidents",
	}

	ctx := env.Context(t)
	indices := map[string]opensearch.IndexMapping{
		env.ProductsIndex:  opensearch.ProductsIndexMapping(),
		env.StatsIndex:     opensearch.DailyStatsIndexMapping(),
		env.IncidentsIndex: opensearch.IncidentsIndexMapping(),
	}
	for name, mapping := range indices {
		if _, err := indexer.EnsureIndex(ctx, name, mapping); err != nil {
			t.Fatalf("failed to create index %s: %v", name, err)
		}
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		for name := range indices {
			_ = indexer.DeleteIndex(cleanupCtx, name)
		}
	})

	env.Products = opensearch.NewProductRepository(indexer, env.ProductsIndex, logger)
	env.Stats = opensearch.NewStatsRepository(searcher, indexer, env.StatsIndex, logger)
	env.Incidents = opensearch.NewIncidentRepository(searcher, indexer, env.IncidentsIndex, logger)

	env.Catalog = catalog.NewService(env.Products, env.Stats, mining.NewExtractor(), catalog.Config{
		ProductURLTemplate: "https://shop.example.ro/p/{sku}",
	}, logger)
	env.Incident = incident.NewService(env.Incidents, logger)
	env.Analytics = analytics.NewService(searcher, analytics.Config{
		IncidentsIndex: env.IncidentsIndex,
		ProductsIndex:  env.ProductsIndex,
	}, logger)
	env.Quality = quality.NewService(searcher, env.Analytics, quality.Config{
		IncidentsIndex: env.IncidentsIndex,
		ProductsIndex:  env.ProductsIndex,
	}, logger)

	return env
}

// Context returns a scenario-scoped context cancelled on cleanup.
func (env *TestEnvironment) Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}
