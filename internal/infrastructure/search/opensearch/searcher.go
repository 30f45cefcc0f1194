package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// SearcherConfig holds configuration for the Searcher.
type SearcherConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	SearchTimeout   time.Duration
	ScrollKeepAlive time.Duration
	MaxScrollSize   int
}

// SearchRequest defines a search query.
type SearchRequest struct {
	IndexName      string
	Query          *Query
	Filters        []Filter
	Sort           []SortField
	Pagination     *Pagination
	Aggregations   map[string]Aggregation
	SourceIncludes []string
	SourceExcludes []string
}

// Query defines a query clause.  QueryType selects the clause kind; the
// remaining fields are interpreted per kind.
type Query struct {
	QueryType          string
	Field              string
	Fields             []string
	Value              interface{}
	Boost              float64
	Must               []Query
	Should             []Query
	MustNot            []Query
	MinimumShouldMatch string
}

// Filter defines a non-scoring filter condition.  FilterType is one of
// term, terms, range, exists or missing.
type Filter struct {
	Field      string
	FilterType string
	Value      interface{}
	RangeFrom  interface{}
	RangeTo    interface{}
}

// SortField defines sorting criteria.  Missing controls where documents
// without the field sort ("_first" or "_last").
type SortField struct {
	Field   string
	Order   string
	Missing string
}

// Pagination defines pagination parameters.
type Pagination struct {
	Offset int
	Limit  int
}

// Aggregation defines one aggregation.  AggType selects the kind: terms,
// sum, avg, min, max, value_count, cardinality, range, date_histogram,
// filter or bucket_script.
type Aggregation struct {
	AggType         string
	Field           string
	Size            int
	Interval        string
	Format          string
	Order           map[string]string
	Ranges          []AggRange
	Filter          *Filter
	BucketsPath     map[string]string
	Script          string
	SubAggregations map[string]Aggregation
}

// AggRange defines a range for a range aggregation.
type AggRange struct {
	Key  string
	From interface{}
	To   interface{}
}

// SearchResult holds the decoded search response.
type SearchResult struct {
	Total        int64
	MaxScore     float64
	Hits         []SearchHit
	Aggregations map[string]AggregationResult
	TookMs       int64
}

// SearchHit represents a single search hit.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
	Sort   []interface{}
}

// AggregationResult holds one decoded aggregation.  Exactly one of the
// shapes is populated: Buckets for bucket aggregations, Value for metric
// aggregations, DocCount plus SubAggregations for filter aggregations.
type AggregationResult struct {
	Buckets         []AggBucket
	Value           *float64
	DocCount        *int64
	SubAggregations map[string]AggregationResult
}

// ValueOrZero returns the metric value, or 0 when the store returned null
// or no value at all.
func (r AggregationResult) ValueOrZero() float64 {
	if r.Value == nil {
		return 0
	}
	return *r.Value
}

// DocCountOrZero returns the filter-aggregation document count, or 0.
func (r AggregationResult) DocCountOrZero() int64 {
	if r.DocCount == nil {
		return 0
	}
	return *r.DocCount
}

// Sub returns the named nested aggregation, zero-valued when absent.
func (r AggregationResult) Sub(name string) AggregationResult {
	return r.SubAggregations[name]
}

// AggBucket represents one bucket in a bucket aggregation result.
type AggBucket struct {
	Key             interface{}
	KeyAsString     string
	DocCount        int64
	SubAggregations map[string]AggregationResult
}

// Sub returns the named sub-aggregation, zero-valued when absent.
func (b AggBucket) Sub(name string) AggregationResult {
	return b.SubAggregations[name]
}

// KeyString returns the bucket key as a string: key_as_string when the
// store provided one, the raw key rendered otherwise.
func (b AggBucket) KeyString() string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	if s, ok := b.Key.(string); ok {
		return s
	}
	return fmt.Sprint(b.Key)
}

// SubValue returns the named sub-aggregation metric value, 0 when the
// sub-aggregation is absent or its value is null.
func (b AggBucket) SubValue(name string) float64 {
	return b.SubAggregations[name].ValueOrZero()
}

// SubDocCount returns the named filter sub-aggregation document count.
func (b AggBucket) SubDocCount(name string) int64 {
	return b.SubAggregations[name].DocCountOrZero()
}

// Searcher performs read operations against the store.
type Searcher struct {
	client *Client
	config SearcherConfig
	logger logging.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(client *Client, cfg SearcherConfig, logger logging.Logger) *Searcher {
	if cfg.DefaultPageSize == 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize == 0 {
		cfg.MaxPageSize = 500
	}
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = 10 * time.Second
	}
	if cfg.ScrollKeepAlive == 0 {
		cfg.ScrollKeepAlive = 5 * time.Minute
	}
	if cfg.MaxScrollSize == 0 {
		cfg.MaxScrollSize = 1000
	}

	return &Searcher{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Search executes a search request.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.IndexName == "" {
		return nil, errors.New(errors.ErrCodeValidation, "IndexName is required")
	}

	if req.Pagination == nil {
		req.Pagination = &Pagination{Offset: 0, Limit: s.config.DefaultPageSize}
	}
	if req.Pagination.Limit > s.config.MaxPageSize {
		req.Pagination.Limit = s.config.MaxPageSize
	}
	if req.Pagination.Offset < 0 {
		req.Pagination.Offset = 0
	}

	dsl, err := s.buildQueryDSL(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query DSL")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	osReq := opensearchapi.SearchRequest{
		Index: []string{req.IndexName},
		Body:  bytes.NewReader(body),
	}

	start := time.Now()
	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTimeout, "search request timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, s.handleErrorResponse(resp)
	}

	result, err := s.parseSearchResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		logging.String("index", req.IndexName),
		logging.Int64("took_ms", time.Since(start).Milliseconds()),
		logging.Int64("hits", result.Total))

	return result, nil
}

// Count returns the number of documents matching the query and filters.
func (s *Searcher) Count(ctx context.Context, indexName string, query *Query, filters []Filter) (int64, error) {
	req := SearchRequest{
		IndexName: indexName,
		Query:     query,
		Filters:   filters,
	}
	dsl, err := s.buildQueryDSL(req)
	if err != nil {
		return 0, err
	}

	// The count API accepts only the query part.
	countDSL := map[string]interface{}{}
	if q, ok := dsl["query"]; ok {
		countDSL["query"] = q
	}

	body, err := json.Marshal(countDSL)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal count query")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	osReq := opensearchapi.CountRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(body),
	}

	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeStoreQuery, "count request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return 0, s.handleErrorResponse(resp)
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode count response")
	}

	return countResp.Count, nil
}

// RandomSample returns up to size documents drawn with a seeded
// random_score, optionally restricted by filters.
func (s *Searcher) RandomSample(ctx context.Context, indexName string, size int, seed int64, filters []Filter, sourceIncludes []string) ([]SearchHit, error) {
	if size <= 0 {
		size = s.config.DefaultPageSize
	}
	if size > s.config.MaxPageSize {
		size = s.config.MaxPageSize
	}

	var inner interface{} = map[string]interface{}{"match_all": map[string]interface{}{}}
	if len(filters) > 0 {
		clauses := make([]map[string]interface{}, len(filters))
		for i, f := range filters {
			clauses[i] = s.buildFilter(f)
		}
		inner = map[string]interface{}{"bool": map[string]interface{}{"filter": clauses}}
	}

	dsl := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"function_score": map[string]interface{}{
				"query": inner,
				"random_score": map[string]interface{}{
					"seed":  seed,
					"field": "_seq_no",
				},
			},
		},
	}
	if len(sourceIncludes) > 0 {
		dsl["_source"] = map[string]interface{}{"includes": sourceIncludes}
	}

	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal sample query")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	osReq := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(body),
	}

	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "sample request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, s.handleErrorResponse(resp)
	}

	result, err := s.parseSearchResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

// ScrollSearch walks every matching document in batches, invoking
// batchHandler per batch.  A handler error aborts the scroll.
func (s *Searcher) ScrollSearch(ctx context.Context, req SearchRequest, batchHandler func(hits []SearchHit) error) error {
	dsl, err := s.buildQueryDSL(req)
	if err != nil {
		return err
	}
	if req.Pagination == nil {
		dsl["size"] = s.config.MaxScrollSize
	} else {
		dsl["size"] = req.Pagination.Limit
	}
	delete(dsl, "from")

	body, err := json.Marshal(dsl)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal scroll query")
	}

	osReq := opensearchapi.SearchRequest{
		Index:  []string{req.IndexName},
		Body:   bytes.NewReader(body),
		Scroll: s.config.ScrollKeepAlive,
	}

	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreQuery, "initial scroll request failed")
	}

	scrollID, hits, err := s.decodeScrollBatch(resp)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return s.clearScroll(ctx, scrollID)
	}
	if err := batchHandler(hits); err != nil {
		s.clearScroll(ctx, scrollID)
		return err
	}

	for {
		scrollReq := opensearchapi.ScrollRequest{
			ScrollID: scrollID,
			Scroll:   s.config.ScrollKeepAlive,
		}

		resp, err := scrollReq.Do(ctx, s.client.GetClient())
		if err != nil {
			s.clearScroll(ctx, scrollID)
			return errors.Wrap(err, errors.ErrCodeStoreQuery, "scroll request failed")
		}

		newID, hits, err := s.decodeScrollBatch(resp)
		if err != nil {
			s.clearScroll(ctx, scrollID)
			return err
		}
		if newID != "" {
			scrollID = newID
		}
		if len(hits) == 0 {
			break
		}
		if err := batchHandler(hits); err != nil {
			s.clearScroll(ctx, scrollID)
			return err
		}
	}

	return s.clearScroll(ctx, scrollID)
}

func (s *Searcher) decodeScrollBatch(resp *opensearchapi.Response) (string, []SearchHit, error) {
	defer resp.Body.Close()

	if resp.IsError() {
		return "", nil, s.handleErrorResponse(resp)
	}

	var raw struct {
		ScrollID string `json:"_scroll_id"`
		Hits     struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
				Sort   []interface{}   `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode scroll response")
	}

	hits := make([]SearchHit, 0, len(raw.Hits.Hits))
	for _, h := range raw.Hits.Hits {
		hits = append(hits, SearchHit{ID: h.ID, Score: h.Score, Source: h.Source, Sort: h.Sort})
	}
	return raw.ScrollID, hits, nil
}

func (s *Searcher) clearScroll(ctx context.Context, scrollID string) error {
	if scrollID == "" {
		return nil
	}
	req := opensearchapi.ClearScrollRequest{
		ScrollID: []string{scrollID},
	}
	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// MultiSearch executes several searches in a single round trip.  The
// result slice is index-aligned with the requests; a failed sub-request
// yields a nil entry.
func (s *Searcher) MultiSearch(ctx context.Context, requests []SearchRequest) ([]*SearchResult, error) {
	var buf bytes.Buffer
	for _, req := range requests {
		meta, err := json.Marshal(map[string]interface{}{"index": req.IndexName})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal msearch header")
		}
		buf.Write(meta)
		buf.WriteString("\n")

		dsl, err := s.buildQueryDSL(req)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(dsl)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal msearch body")
		}
		buf.Write(body)
		buf.WriteString("\n")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	osReq := opensearchapi.MsearchRequest{
		Body: bytes.NewReader(buf.Bytes()),
	}

	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "msearch request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, s.handleErrorResponse(resp)
	}

	var msearchResp struct {
		Responses []json.RawMessage `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msearchResp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode msearch response")
	}

	results := make([]*SearchResult, len(requests))
	for i, raw := range msearchResp.Responses {
		r, err := s.parseSearchResponse(bytes.NewReader(raw))
		if err != nil {
			s.logger.Warn("msearch sub-request failed", logging.Err(err))
			results[i] = nil
			continue
		}
		results[i] = r
	}

	return results, nil
}

func (s *Searcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.SearchTimeout)
}

func (s *Searcher) buildQueryDSL(req SearchRequest) (map[string]interface{}, error) {
	dsl := map[string]interface{}{}

	var queryMap map[string]interface{}
	if req.Query != nil {
		queryMap = s.buildQuery(req.Query)
	}

	if len(req.Filters) > 0 {
		filterClauses := make([]map[string]interface{}, len(req.Filters))
		for i, f := range req.Filters {
			filterClauses[i] = s.buildFilter(f)
		}

		boolQuery := map[string]interface{}{
			"filter": filterClauses,
		}
		if queryMap != nil {
			boolQuery["must"] = queryMap
		} else {
			boolQuery["must"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		}
		queryMap = map[string]interface{}{"bool": boolQuery}
	}

	if queryMap != nil {
		dsl["query"] = queryMap
	}

	if req.Pagination != nil {
		dsl["from"] = req.Pagination.Offset
		dsl["size"] = req.Pagination.Limit
	}

	if len(req.Sort) > 0 {
		sortList := make([]map[string]interface{}, len(req.Sort))
		for i, sort := range req.Sort {
			spec := map[string]interface{}{"order": sort.Order}
			if sort.Missing != "" {
				spec["missing"] = sort.Missing
			}
			sortList[i] = map[string]interface{}{sort.Field: spec}
		}
		dsl["sort"] = sortList
	}

	if len(req.Aggregations) > 0 {
		dsl["aggs"] = s.buildAggregations(req.Aggregations)
	}

	if len(req.SourceIncludes) > 0 || len(req.SourceExcludes) > 0 {
		source := map[string]interface{}{}
		if len(req.SourceIncludes) > 0 {
			source["includes"] = req.SourceIncludes
		}
		if len(req.SourceExcludes) > 0 {
			source["excludes"] = req.SourceExcludes
		}
		dsl["_source"] = source
	}

	return dsl, nil
}

func (s *Searcher) buildQuery(q *Query) map[string]interface{} {
	switch q.QueryType {
	case "match":
		inner := map[string]interface{}{"query": q.Value}
		if q.Boost > 0 {
			inner["boost"] = q.Boost
		}
		return map[string]interface{}{
			"match": map[string]interface{}{q.Field: inner},
		}
	case "multi_match":
		return map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Value,
				"fields": q.Fields,
			},
		}
	case "term":
		return map[string]interface{}{
			"term": map[string]interface{}{q.Field: q.Value},
		}
	case "terms":
		return map[string]interface{}{
			"terms": map[string]interface{}{q.Field: q.Value},
		}
	case "range":
		return map[string]interface{}{
			"range": map[string]interface{}{q.Field: q.Value},
		}
	case "match_phrase":
		return map[string]interface{}{
			"match_phrase": map[string]interface{}{q.Field: q.Value},
		}
	case "exists":
		return map[string]interface{}{
			"exists": map[string]interface{}{"field": q.Field},
		}
	case "script":
		return map[string]interface{}{
			"script": map[string]interface{}{
				"script": map[string]interface{}{
					"source": q.Value,
					"lang":   "painless",
				},
			},
		}
	case "bool":
		boolQ := map[string]interface{}{}
		if len(q.Must) > 0 {
			clauses := make([]map[string]interface{}, len(q.Must))
			for i, sub := range q.Must {
				clauses[i] = s.buildQuery(&sub)
			}
			boolQ["must"] = clauses
		}
		if len(q.Should) > 0 {
			clauses := make([]map[string]interface{}, len(q.Should))
			for i, sub := range q.Should {
				clauses[i] = s.buildQuery(&sub)
			}
			boolQ["should"] = clauses
		}
		if len(q.MustNot) > 0 {
			clauses := make([]map[string]interface{}, len(q.MustNot))
			for i, sub := range q.MustNot {
				clauses[i] = s.buildQuery(&sub)
			}
			boolQ["must_not"] = clauses
		}
		if q.MinimumShouldMatch != "" {
			boolQ["minimum_should_match"] = q.MinimumShouldMatch
		}
		return map[string]interface{}{"bool": boolQ}
	}
	return nil
}

func (s *Searcher) buildFilter(f Filter) map[string]interface{} {
	switch f.FilterType {
	case "term":
		return map[string]interface{}{
			"term": map[string]interface{}{f.Field: f.Value},
		}
	case "terms":
		return map[string]interface{}{
			"terms": map[string]interface{}{f.Field: f.Value},
		}
	case "range":
		rangeMap := map[string]interface{}{}
		if f.RangeFrom != nil {
			rangeMap["gte"] = f.RangeFrom
		}
		if f.RangeTo != nil {
			rangeMap["lte"] = f.RangeTo
		}
		return map[string]interface{}{
			"range": map[string]interface{}{f.Field: rangeMap},
		}
	case "exists":
		return map[string]interface{}{
			"exists": map[string]interface{}{"field": f.Field},
		}
	case "missing":
		return map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": map[string]interface{}{
					"exists": map[string]interface{}{"field": f.Field},
				},
			},
		}
	}
	return nil
}

func (s *Searcher) buildAggregations(aggs map[string]Aggregation) map[string]interface{} {
	dsl := map[string]interface{}{}
	for name, agg := range aggs {
		aggDSL := map[string]interface{}{}

		switch agg.AggType {
		case "terms":
			terms := map[string]interface{}{
				"field": agg.Field,
				"size":  agg.Size,
			}
			if len(agg.Order) > 0 {
				terms["order"] = agg.Order
			}
			aggDSL["terms"] = terms
		case "date_histogram":
			hist := map[string]interface{}{
				"field":             agg.Field,
				"calendar_interval": agg.Interval,
			}
			if agg.Format != "" {
				hist["format"] = agg.Format
			}
			aggDSL["date_histogram"] = hist
		case "range":
			ranges := make([]map[string]interface{}, len(agg.Ranges))
			for i, r := range agg.Ranges {
				ranges[i] = map[string]interface{}{
					"key":  r.Key,
					"from": r.From,
					"to":   r.To,
				}
			}
			aggDSL["range"] = map[string]interface{}{
				"field":  agg.Field,
				"ranges": ranges,
			}
		case "avg":
			aggDSL["avg"] = map[string]interface{}{"field": agg.Field}
		case "sum":
			aggDSL["sum"] = map[string]interface{}{"field": agg.Field}
		case "min":
			aggDSL["min"] = map[string]interface{}{"field": agg.Field}
		case "max":
			aggDSL["max"] = map[string]interface{}{"field": agg.Field}
		case "value_count":
			aggDSL["value_count"] = map[string]interface{}{"field": agg.Field}
		case "cardinality":
			aggDSL["cardinality"] = map[string]interface{}{"field": agg.Field}
		case "filter":
			if agg.Filter != nil {
				aggDSL["filter"] = s.buildFilter(*agg.Filter)
			}
		case "bucket_script":
			aggDSL["bucket_script"] = map[string]interface{}{
				"buckets_path": agg.BucketsPath,
				"script":       agg.Script,
			}
		}

		if len(agg.SubAggregations) > 0 {
			aggDSL["aggs"] = s.buildAggregations(agg.SubAggregations)
		}

		dsl[name] = aggDSL
	}
	return dsl
}

func (s *Searcher) parseSearchResponse(body io.Reader) (*SearchResult, error) {
	var resp struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
				Sort   []interface{}   `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
		Error        json.RawMessage            `json:"error"`
	}

	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}
	if len(resp.Error) > 0 {
		return nil, errors.Newf(errors.ErrCodeStoreQuery, "search returned error: %s", string(resp.Error))
	}

	result := &SearchResult{
		Total:    resp.Hits.Total.Value,
		MaxScore: resp.Hits.MaxScore,
		TookMs:   resp.Took,
	}

	for _, h := range resp.Hits.Hits {
		result.Hits = append(result.Hits, SearchHit{
			ID:     h.ID,
			Score:  h.Score,
			Source: h.Source,
			Sort:   h.Sort,
		})
	}

	if len(resp.Aggregations) > 0 {
		result.Aggregations = make(map[string]AggregationResult)
		for name, raw := range resp.Aggregations {
			result.Aggregations[name] = s.parseAggregationResult(raw)
		}
	}

	return result, nil
}

// parseAggregationResult decodes one aggregation subtree.  Metric
// aggregations carry "value", bucket aggregations carry "buckets", filter
// aggregations carry a bare "doc_count" plus nested sub-aggregations.
func (s *Searcher) parseAggregationResult(raw json.RawMessage) AggregationResult {
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return AggregationResult{}
	}

	res := AggregationResult{}

	if v, present := asMap["value"]; present {
		if val, ok := v.(float64); ok {
			res.Value = &val
		}
		// A null value stays nil; ValueOrZero maps it to 0.
	}

	if buckets, ok := asMap["buckets"].([]interface{}); ok {
		for _, b := range buckets {
			bMap, ok := b.(map[string]interface{})
			if !ok {
				continue
			}

			bucket := AggBucket{}
			if key, ok := bMap["key"]; ok {
				bucket.Key = key
			}
			if keyS, ok := bMap["key_as_string"].(string); ok {
				bucket.KeyAsString = keyS
			} else {
				bucket.KeyAsString = fmt.Sprint(bucket.Key)
			}
			if docCount, ok := bMap["doc_count"].(float64); ok {
				bucket.DocCount = int64(docCount)
			}

			bucket.SubAggregations = s.parseSubAggregations(bMap)
			res.Buckets = append(res.Buckets, bucket)
		}
		return res
	}

	// Filter aggregation: bare doc_count with optional sub-aggregations.
	if res.Value == nil {
		if docCount, ok := asMap["doc_count"].(float64); ok {
			dc := int64(docCount)
			res.DocCount = &dc
			res.SubAggregations = s.parseSubAggregations(asMap)
		}
	}

	return res
}

func (s *Searcher) parseSubAggregations(m map[string]interface{}) map[string]AggregationResult {
	var subs map[string]AggregationResult
	for k, v := range m {
		if k == "key" || k == "key_as_string" || k == "doc_count" {
			continue
		}
		vMap, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		_, hasBuckets := vMap["buckets"]
		_, hasValue := vMap["value"]
		_, hasDocCount := vMap["doc_count"]
		if !hasBuckets && !hasValue && !hasDocCount {
			continue
		}
		subRaw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		if subs == nil {
			subs = make(map[string]AggregationResult)
		}
		subs[k] = s.parseAggregationResult(subRaw)
	}
	return subs
}

func (s *Searcher) handleErrorResponse(resp *opensearchapi.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Newf(errors.ErrCodeStoreQuery, "opensearch error: %s - %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Newf(errors.ErrCodeStoreQuery, "opensearch error status: %d", resp.StatusCode)
}
