package quality

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
)

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) DamageRatePerSupplier(ctx context.Context, productType string) ([]analytics.SupplierKPI, error) {
	args := m.Called(ctx, productType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.SupplierKPI), args.Error(1)
}

func (m *mockAnalytics) DamageRatePerSupplierAndType(ctx context.Context) ([]analytics.SupplierKPI, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.SupplierKPI), args.Error(1)
}

func (m *mockAnalytics) DamageTypeDistribution(ctx context.Context) ([]analytics.SupplierDamageTypes, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.SupplierDamageTypes), args.Error(1)
}

func (m *mockAnalytics) MonthlyDamageRate(ctx context.Context, supplierID string) ([]analytics.MonthlyPoint, error) {
	args := m.Called(ctx, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.MonthlyPoint), args.Error(1)
}

func (m *mockAnalytics) AttributeCoverageByCategory(ctx context.Context, attribute string) ([]analytics.CoverageStat, error) {
	args := m.Called(ctx, attribute)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.CoverageStat), args.Error(1)
}

func (m *mockAnalytics) MissingAttributeFixList(ctx context.Context, attribute, category string, limit int) ([]analytics.FixListItem, error) {
	args := m.Called(ctx, attribute, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analytics.FixListItem), args.Error(1)
}

func (m *mockAnalytics) RevenueImportance(ctx context.Context, attribute, category string) (*analytics.RevenueSplit, error) {
	args := m.Called(ctx, attribute, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.RevenueSplit), args.Error(1)
}

// storeStub answers the construction ping, serves per-field counts on the
// count API and a canned body on the search API, and records requests.
type storeStub struct {
	searchResponse string
	fieldCounts    map[string]int64
	totalCount     int64

	lastSearchBody string
	countRequests  int
}

func (s *storeStub) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		if strings.HasSuffix(r.URL.Path, "/_count") {
			s.countRequests++
			for field, n := range s.fieldCounts {
				if strings.Contains(string(body), `"field":"`+field+`"`) {
					writeCount(w, n)
					return
				}
			}
			writeCount(w, s.totalCount)
			return
		}
		s.lastSearchBody = string(body)
		w.Write([]byte(s.searchResponse))
	}))
}

func writeCount(w http.ResponseWriter, n int64) {
	w.Write([]byte(`{"count":` + strconv.FormatInt(n, 10) + `}`))
}

func newTestService(t *testing.T, serverURL string, kpis analytics.Service) Service {
	t.Helper()
	client, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses: []string{serverURL},
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	searcher := opensearch.NewSearcher(client, opensearch.SearcherConfig{}, logging.NewNopLogger())
	return NewService(searcher, kpis, Config{
		IncidentsIndex: "supplier_incidents",
		ProductsIndex:  "products",
	}, logging.NewNopLogger())
}

func TestValidateIncidents_ReportsOffendersAndGaps(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{
			"took": 3,
			"hits": {"total": {"value": 2}, "hits": [
				{"_id": "INC-0a1b2c3d4e5f", "_index": "supplier_incidents", "_score": 1.0, "_source": {
					"incident_id": "INC-0a1b2c3d4e5f",
					"supplier_id": "SUP-1",
					"sku": "OJA-001",
					"qty_total_in_shipment": 10,
					"qty_damaged": 25
				}},
				{"_id": "INC-ffffffffffff", "_index": "supplier_incidents", "_score": 1.0, "_source": {
					"supplier_id": "SUP-2",
					"sku": "BUF-002",
					"qty_total_in_shipment": 4,
					"qty_damaged": 9
				}}
			]}
		}`,
		fieldCounts: map[string]int64{
			"supplier_id":   0,
			"sku":           2,
			"date_reported": 0,
			"product_type":  1,
		},
	}
	server := stub.server()
	defer server.Close()

	kpis := new(mockAnalytics)
	svc := newTestService(t, server.URL, kpis)

	report, err := svc.ValidateIncidents(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stub.lastSearchBody, `doc['qty_damaged'].value > doc['qty_total_in_shipment'].value`)
	assert.Contains(t, stub.lastSearchBody, `"lang":"painless"`)
	assert.Contains(t, stub.lastSearchBody, `"size":50`)

	require.Len(t, report.Offending, 2)
	assert.Equal(t, "INC-0a1b2c3d4e5f", report.Offending[0].IncidentID)
	assert.Equal(t, "INC-ffffffffffff", report.Offending[1].IncidentID)

	require.Len(t, report.MissingFields, 4)
	assert.Equal(t, FieldCount{Field: "supplier_id", Count: 0}, report.MissingFields[0])
	assert.Equal(t, FieldCount{Field: "sku", Count: 2}, report.MissingFields[1])
	assert.Equal(t, FieldCount{Field: "date_reported", Count: 0}, report.MissingFields[2])
	assert.Equal(t, FieldCount{Field: "product_type", Count: 1}, report.MissingFields[3])

	assert.False(t, report.Clean)
}

func TestValidateIncidents_CleanStore(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`,
		fieldCounts:    map[string]int64{},
	}
	server := stub.server()
	defer server.Close()

	svc := newTestService(t, server.URL, new(mockAnalytics))

	report, err := svc.ValidateIncidents(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Offending)
	assert.True(t, report.Clean)
}

func TestValidateProducts_ReportsMissingAndCoverage(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`,
		totalCount:     200,
		fieldCounts: map[string]int64{
			"brand":         10,
			"category_main": 0,
			"price_final":   50,
		},
	}
	server := stub.server()
	defer server.Close()

	kpis := new(mockAnalytics)
	volumeStats := []analytics.CoverageStat{
		{CategoryMain: "Pedichiura", TotalSkus: 40, WithAttribute: 10, CoverageRatio: 0.25},
		{CategoryMain: "Manichiura", TotalSkus: 100, WithAttribute: 90, CoverageRatio: 0.9},
		{CategoryMain: "Gel Polish", TotalSkus: 50, WithAttribute: 30, CoverageRatio: 0.6},
		{CategoryMain: "Accesorii", TotalSkus: 20, WithAttribute: 2, CoverageRatio: 0.1},
		{CategoryMain: "Degresanti", TotalSkus: 10, WithAttribute: 8, CoverageRatio: 0.8},
		{CategoryMain: "Freze", TotalSkus: 10, WithAttribute: 1, CoverageRatio: 0.1},
	}
	kpis.On("AttributeCoverageByCategory", mock.Anything, "attr_volume_ml").Return(volumeStats, nil).Once()
	for _, attr := range []string{"attr_shade_code", "attr_finish", "attr_grit", "attr_liquid_type"} {
		kpis.On("AttributeCoverageByCategory", mock.Anything, attr).
			Return([]analytics.CoverageStat{}, nil).Once()
	}

	svc := newTestService(t, server.URL, kpis)

	report, err := svc.ValidateProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(200), report.TotalDocuments)

	require.Len(t, report.MissingFields, 3)
	assert.Equal(t, "brand", report.MissingFields[0].Field)
	assert.InDelta(t, 0.05, report.MissingFields[0].MissingRatio, 1e-9)
	assert.Equal(t, "category_main", report.MissingFields[1].Field)
	assert.Zero(t, report.MissingFields[1].MissingRatio)
	assert.Equal(t, "price_final", report.MissingFields[2].Field)
	assert.InDelta(t, 0.25, report.MissingFields[2].MissingRatio, 1e-9)

	require.Len(t, report.Coverage, 5)
	assert.Equal(t, "attr_volume_ml", report.Coverage[0].Attribute)
	top := report.Coverage[0].Top
	require.Len(t, top, 5)
	assert.Equal(t, "Manichiura", top[0].CategoryMain)
	assert.Equal(t, "Degresanti", top[1].CategoryMain)
	assert.Equal(t, "Gel Polish", top[2].CategoryMain)
	assert.Equal(t, "Pedichiura", top[3].CategoryMain)
	assert.Equal(t, "Accesorii", top[4].CategoryMain)

	kpis.AssertExpectations(t)
}

func TestValidateProducts_EmptyIndexSkipsRatios(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`,
		totalCount:     0,
	}
	server := stub.server()
	defer server.Close()

	kpis := new(mockAnalytics)
	kpis.On("AttributeCoverageByCategory", mock.Anything, mock.Anything).
		Return([]analytics.CoverageStat{}, nil)

	svc := newTestService(t, server.URL, kpis)

	report, err := svc.ValidateProducts(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TotalDocuments)
	for _, fr := range report.MissingFields {
		assert.Zero(t, fr.MissingRatio)
	}
	// Only the total count hits the store when the index is empty.
	assert.Equal(t, 1, stub.countRequests)
}

func TestAudit_FlagsImplausibleValues(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{
			"took": 2,
			"hits": {"total": {"value": 4}, "hits": [
				{"_id": "OJA-001", "_index": "products", "_score": 1.0, "_source": {
					"sku": "OJA-001", "name": "Oja clasica", "brand": "Glam", "attr_volume_ml": 0
				}},
				{"_id": "LIC-002", "_index": "products", "_score": 1.0, "_source": {
					"sku": "LIC-002", "name": "Lichid degresant", "attr_volume_ml": 250, "attr_liquid_type": "degresant"
				}},
				{"_id": "PIL-003", "_index": "products", "_score": 1.0, "_source": {
					"sku": "PIL-003", "name": "Pila speciala", "attr_grit": "60/60"
				}},
				{"_id": "PIL-004", "_index": "products", "_score": 1.0, "_source": {
					"sku": "PIL-004", "name": "Pila buffer", "attr_grit": "100/180", "attr_volume_ml": 15
				}}
			]}
		}`,
	}
	server := stub.server()
	defer server.Close()

	svc := newTestService(t, server.URL, new(mockAnalytics))

	samples, err := svc.Audit(context.Background(), []string{"Manichiura"}, 4)
	require.NoError(t, err)

	assert.Contains(t, stub.lastSearchBody, `"random_score"`)
	assert.Contains(t, stub.lastSearchBody, `"seed"`)
	assert.Contains(t, stub.lastSearchBody, `{"term":{"category_main":"Manichiura"}}`)
	assert.Contains(t, stub.lastSearchBody, `"size":4`)
	assert.Contains(t, stub.lastSearchBody, `"attr_grit"`)

	require.Len(t, samples, 1)
	items := samples[0].Items
	require.Len(t, items, 4)

	assert.Equal(t, []string{"volum 0 ml"}, items[0].Flags)
	assert.Equal(t, []string{"volum > 200 ml"}, items[1].Flags)
	assert.Equal(t, []string{"grit neuzual"}, items[2].Flags)
	assert.Empty(t, items[3].Flags)

	assert.Equal(t, "Glam", items[0].Brand)
	assert.Equal(t, 250.0, items[1].Attributes["attr_volume_ml"])
}

func TestAudit_DefaultsCategoriesAndSize(t *testing.T) {
	stub := &storeStub{
		searchResponse: `{"took": 1, "hits": {"total": {"value": 0}, "hits": []}}`,
	}
	server := stub.server()
	defer server.Close()

	svc := newTestService(t, server.URL, new(mockAnalytics))

	samples, err := svc.Audit(context.Background(), nil, 0)
	require.NoError(t, err)

	assert.Contains(t, stub.lastSearchBody, `"size":5`)
	require.Len(t, samples, 3)
	assert.Equal(t, "Manichiura", samples[0].Category)
	assert.Equal(t, "Pedichiura", samples[1].Category)
	assert.Equal(t, "Gel Polish", samples[2].Category)
}
