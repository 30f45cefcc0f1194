package opensearch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
)

func newTestIndexer(serverURL string) *Indexer {
	osCfg := opensearchgo.Config{
		Addresses: []string{serverURL},
	}
	osClient, err := opensearchgo.NewClient(osCfg)
	if err != nil {
		panic(err)
	}

	c := &Client{
		client: osClient,
		config: ClientConfig{Addresses: []string{serverURL}},
		logger: logging.NewNopLogger(),
	}
	c.healthy.Store(true)

	return NewIndexer(c, IndexerConfig{BulkBatchSize: 500}, logging.NewNopLogger())
}

func TestCreateIndex_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == "PUT" && strings.Contains(r.URL.Path, "products") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.CreateIndex(context.Background(), "products", ProductsIndexMapping())
	assert.NoError(t, err)
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.CreateIndex(context.Background(), "products", IndexMapping{})
	assert.Error(t, err)
	assert.Equal(t, ErrIndexAlreadyExists, err)
}

func TestEnsureIndex_CreatesWhenAbsent(t *testing.T) {
	var createdPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == "PUT" {
			createdPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	created, err := indexer.EnsureIndex(context.Background(), "supplier_incidents", IncidentsIndexMapping())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "/supplier_incidents", createdPath)
}

func TestEnsureIndex_UpdatesMappingWhenPresent(t *testing.T) {
	var mappingPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method == "PUT" && strings.Contains(r.URL.Path, "_mapping") {
			mappingPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"acknowledged": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	created, err := indexer.EnsureIndex(context.Background(), "products", ProductsIndexMapping())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Contains(t, mappingPath, "/products/_mapping")
}

func TestDeleteIndex_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.DeleteIndex(context.Background(), "products")
	assert.Error(t, err)
	assert.Equal(t, ErrIndexNotFound, err)
}

func TestIndexDocument_UsesRefreshParam(t *testing.T) {
	var refresh string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/_doc/") {
			refresh = r.URL.Query().Get("refresh")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"_id": "INC-1", "result": "created"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	doc := map[string]interface{}{"supplier_id": "SUP-01"}
	err := indexer.IndexDocument(context.Background(), "supplier_incidents", "INC-1", doc, "wait_for")
	require.NoError(t, err)
	assert.Equal(t, "wait_for", refresh)
}

func TestIndexDocument_DefaultRefreshPolicy(t *testing.T) {
	var refresh string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh = r.URL.Query().Get("refresh")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result": "created"}`))
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.IndexDocument(context.Background(), "products", "SKU-1", map[string]string{"sku": "SKU-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "false", refresh)
}

func TestUpsertDocument_SendsDocAsUpsert(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/_update/") {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"result": "updated"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.UpsertDocument(context.Background(), "products", "SKU-1", map[string]interface{}{"price": 25.5}, "wait_for")
	require.NoError(t, err)
	assert.Contains(t, body, `"doc_as_upsert":true`)
	assert.Contains(t, body, `"price":25.5`)
}

func TestGetDocument_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" && strings.Contains(r.URL.Path, "/_doc/") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"found": true, "_source": {"sku": "SKU-1", "name": "Oja"}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	source, err := indexer.GetDocument(context.Background(), "products", "SKU-1")
	require.NoError(t, err)
	assert.Contains(t, string(source), `"sku"`)
}

func TestGetDocument_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"found": false}`))
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	_, err := indexer.GetDocument(context.Background(), "products", "ABSENT")
	assert.Error(t, err)
	assert.Equal(t, ErrDocumentNotFound, err)
}

func TestBulkIndex_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.Contains(r.URL.Path, "_bulk") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"took": 30,
				"errors": false,
				"items": [
					{"index": {"_index": "products", "_id": "1", "status": 201, "result": "created"}},
					{"index": {"_index": "products", "_id": "2", "status": 200, "result": "updated"}}
				]
			}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	docs := map[string]interface{}{
		"1": map[string]string{"sku": "1"},
		"2": map[string]string{"sku": "2"},
	}
	result, err := indexer.BulkIndex(context.Background(), "products", docs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
}

func TestBulkIndex_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.Contains(r.URL.Path, "_bulk") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"took": 30,
				"errors": true,
				"items": [
					{"index": {"_index": "products", "_id": "1", "status": 201}},
					{"index": {"_index": "products", "_id": "2", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "failed"}}}
				]
			}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	docs := map[string]interface{}{
		"1": map[string]string{"sku": "1"},
		"2": map[string]string{"sku": "2"},
	}
	result, err := indexer.BulkIndex(context.Background(), "products", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "2", result.Errors[0].DocID)
}

func TestBulkUpsert_BuildsUpdateActions(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.Contains(r.URL.Path, "_bulk") {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"took": 5,
				"errors": false,
				"items": [
					{"update": {"_index": "sku_daily_stats", "_id": "SKU-1_2024-03-01", "status": 200, "result": "updated"}}
				]
			}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	docs := map[string]interface{}{
		"SKU-1_2024-03-01": map[string]interface{}{"sku": "SKU-1", "purchases": 3},
	}
	result, err := indexer.BulkUpsert(context.Background(), "sku_daily_stats", docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	assert.Contains(t, body, `{"update":{"_index":"sku_daily_stats","_id":"SKU-1_2024-03-01"}}`)
	assert.Contains(t, body, `"doc_as_upsert":true`)
	assert.Contains(t, body, `"purchases":3`)
}

func TestBulkUpsert_TalliesResultKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" && strings.Contains(r.URL.Path, "_bulk") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"took": 5,
				"errors": false,
				"items": [
					{"update": {"_index": "products", "_id": "A", "status": 201, "result": "created"}},
					{"update": {"_index": "products", "_id": "B", "status": 200, "result": "updated"}},
					{"update": {"_index": "products", "_id": "C", "status": 200, "result": "noop"}}
				]
			}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	docs := map[string]interface{}{
		"A": map[string]string{"sku": "A"},
		"B": map[string]string{"sku": "B"},
		"C": map[string]string{"sku": "C"},
	}
	result, err := indexer.BulkUpsert(context.Background(), "products", docs)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Noops)
	assert.Equal(t, 0, result.Failed)
}

func TestBulkUpsert_EmptyInput(t *testing.T) {
	indexer := newTestIndexer("http://127.0.0.1:1")
	result, err := indexer.BulkUpsert(context.Background(), "products", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	indexer := newTestIndexer(server.URL)
	err := indexer.DeleteDocument(context.Background(), "products", "ABSENT")
	assert.Error(t, err)
	assert.Equal(t, ErrDocumentNotFound, err)
}

func TestProductsIndexMapping(t *testing.T) {
	m := ProductsIndexMapping()
	require.NotNil(t, m.Mappings)
	require.NotNil(t, m.Settings)

	assert.Equal(t, false, m.Mappings["dynamic"])

	props := m.Mappings["properties"].(map[string]interface{})
	assert.Contains(t, props, "sku")
	assert.Contains(t, props, "brand")
	assert.Contains(t, props, "category_main")
	assert.Contains(t, props, "price_final")
	assert.Contains(t, props, "attr_volume_ml")
	assert.Contains(t, props, "attr_collection")
	assert.Contains(t, props, "total_revenue")

	brand := props["brand"].(map[string]interface{})
	assert.Equal(t, "keyword_lowercase", brand["normalizer"])
}

func TestDailyStatsIndexMapping(t *testing.T) {
	m := DailyStatsIndexMapping()
	props := m.Mappings["properties"].(map[string]interface{})
	assert.Contains(t, props, "sku")
	assert.Contains(t, props, "date")
	assert.Contains(t, props, "purchases")
	assert.Contains(t, props, "returns")
	assert.Contains(t, props, "revenue")
}

func TestIncidentsIndexMapping(t *testing.T) {
	m := IncidentsIndexMapping()
	props := m.Mappings["properties"].(map[string]interface{})
	assert.Contains(t, props, "supplier_id")
	assert.Contains(t, props, "qty_total_in_shipment")
	assert.Contains(t, props, "qty_damaged")
	assert.Contains(t, props, "damage_type")
	assert.Contains(t, props, "date_reported")

	damageType := props["damage_type"].(map[string]interface{})
	assert.Equal(t, "keyword", damageType["type"])
}
