package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ProductsClient covers the catalog endpoints: upsert, fetch, daily
// stats and the attribute-quality views.
type ProductsClient struct {
	client *Client
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Product is the document shape the API accepts and returns. On upsert,
// Attributes carries explicit attr_* overrides that win over derived
// values; on fetch it holds everything the extractor and any overrides
// stored on the document.
type Product struct {
	Sku             string   `json:"sku"`
	Name            string   `json:"name,omitempty"`
	DescriptionHTML string   `json:"description_html,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	CategoryMain    string   `json:"category_main,omitempty"`
	CategoryPath    string   `json:"category_path,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	PriceFinal      *float64 `json:"price_final,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	URL             string   `json:"url,omitempty"`
	TotalRevenue    *float64 `json:"total_revenue,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`

	Attributes map[string]any `json:"attributes,omitempty"`
}

// UnmarshalJSON gathers the document's flattened attr_* keys into
// Attributes, merged under any explicit attributes object.
func (p *Product) UnmarshalJSON(data []byte) error {
	type productAlias Product
	var alias productAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(alias)
	for key, msg := range raw {
		if !strings.HasPrefix(key, "attr_") {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		if v == nil {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]any)
		}
		p.Attributes[key] = v
	}
	return nil
}

// UpsertResult is the answer to a product upsert.
type UpsertResult struct {
	Sku        string         `json:"sku"`
	Indexed    bool           `json:"indexed"`
	Attributes map[string]any `json:"attributes"`
	URL        string         `json:"url,omitempty"`
}

// FetchedProduct pairs a SKU with its stored document.
type FetchedProduct struct {
	Sku      string  `json:"sku"`
	Document Product `json:"document"`
}

// DailyStat is one day of counters for a SKU.
type DailyStat struct {
	Sku       string  `json:"sku"`
	Date      string  `json:"date"`
	Views     int     `json:"views,omitempty"`
	AddToCart int     `json:"add_to_cart,omitempty"`
	Purchases int     `json:"purchases,omitempty"`
	Returns   int     `json:"returns,omitempty"`
	Revenue   float64 `json:"revenue,omitempty"`
}

// DailyStatsResult is a SKU's stat series, newest day first.
type DailyStatsResult struct {
	Sku   string      `json:"sku"`
	Items []DailyStat `json:"items"`
}

// DailyStatsRequest narrows a stat listing. Zero values are omitted.
type DailyStatsRequest struct {
	DateFrom string
	DateTo   string
	Size     int
}

// CoverageStat reports how many SKUs of one category carry an attribute.
type CoverageStat struct {
	CategoryMain  string  `json:"category_main"`
	TotalSkus     int64   `json:"total_skus"`
	WithAttribute int64   `json:"with_attribute"`
	CoverageRatio float64 `json:"coverage_ratio"`
}

// CoverageResult is the per-category coverage of one attribute.
type CoverageResult struct {
	Attribute string         `json:"attribute"`
	Items     []CoverageStat `json:"items"`
}

// FixListItem is one product lacking the requested attribute.
type FixListItem struct {
	Sku          string   `json:"sku"`
	Name         string   `json:"name,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	PriceFinal   *float64 `json:"price_final,omitempty"`
	CategoryMain string   `json:"category_main,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
}

// FixListResult is the enrichment worklist for one attribute and
// category, most valuable product first.
type FixListResult struct {
	Attribute    string        `json:"attribute"`
	CategoryMain string        `json:"category_main"`
	Size         int           `json:"size"`
	Items        []FixListItem `json:"items"`
}

// RevenueSplit divides one category's revenue by attribute presence.
type RevenueSplit struct {
	CategoryMain   string  `json:"category_main"`
	Attribute      string  `json:"attribute"`
	RevenueWith    float64 `json:"with_attribute"`
	RevenueWithout float64 `json:"without_attribute"`
	Share          float64 `json:"share"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Upsert writes one product document. The server derives attr_* values
// from the text and applies p.Attributes as overrides.
func (pc *ProductsClient) Upsert(ctx context.Context, p Product) (*UpsertResult, error) {
	if p.Sku == "" {
		return nil, fmt.Errorf("client: product sku is required")
	}
	var result UpsertResult
	if err := pc.client.post(ctx, "/api/products", p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches one product document by SKU.
func (pc *ProductsClient) Get(ctx context.Context, sku string) (*FetchedProduct, error) {
	if sku == "" {
		return nil, fmt.Errorf("client: sku is required")
	}
	var result FetchedProduct
	if err := pc.client.get(ctx, "/api/products/"+url.PathEscape(sku), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DailyStats lists a SKU's daily counters, newest first.
func (pc *ProductsClient) DailyStats(ctx context.Context, sku string, req DailyStatsRequest) (*DailyStatsResult, error) {
	if sku == "" {
		return nil, fmt.Errorf("client: sku is required")
	}
	q := url.Values{}
	if req.DateFrom != "" {
		q.Set("date_from", req.DateFrom)
	}
	if req.DateTo != "" {
		q.Set("date_to", req.DateTo)
	}
	if req.Size > 0 {
		q.Set("size", strconv.Itoa(req.Size))
	}
	path := "/api/stats/daily/" + url.PathEscape(sku)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var result DailyStatsResult
	if err := pc.client.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AttributeCoverage reports per-category coverage of one attr_* field.
func (pc *ProductsClient) AttributeCoverage(ctx context.Context, attribute string) (*CoverageResult, error) {
	if attribute == "" {
		return nil, fmt.Errorf("client: attribute is required")
	}
	q := url.Values{"attribute": {attribute}}
	var result CoverageResult
	if err := pc.client.get(ctx, "/api/products/attribute-coverage?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MissingAttributes lists products of one category lacking an
// attribute, sorted by final price descending with unpriced products
// last. A zero size takes the server default.
func (pc *ProductsClient) MissingAttributes(ctx context.Context, attribute, categoryMain string, size int) (*FixListResult, error) {
	if attribute == "" {
		return nil, fmt.Errorf("client: attribute is required")
	}
	if categoryMain == "" {
		return nil, fmt.Errorf("client: category_main is required")
	}
	q := url.Values{"attribute": {attribute}, "category_main": {categoryMain}}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	var result FixListResult
	if err := pc.client.get(ctx, "/api/products/missing-attributes?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RevenueImportance splits one category's revenue by attribute
// presence.
func (pc *ProductsClient) RevenueImportance(ctx context.Context, attribute, categoryMain string) (*RevenueSplit, error) {
	if attribute == "" {
		return nil, fmt.Errorf("client: attribute is required")
	}
	if categoryMain == "" {
		return nil, fmt.Errorf("client: category_main is required")
	}
	q := url.Values{"attribute": {attribute}, "category_main": {categoryMain}}
	var result RevenueSplit
	if err := pc.client.get(ctx, "/api/products/revenue-importance?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
