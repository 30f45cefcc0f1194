package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

var (
	ErrIndexAlreadyExists  = errors.New(errors.ErrCodeConflict, "index already exists")
	ErrIndexNotFound       = errors.New(errors.ErrCodeNotFound, "index not found")
	ErrIndexCreationFailed = errors.New(errors.ErrCodeStoreWrite, "index creation failed")
	ErrDocumentIndexFailed = errors.New(errors.ErrCodeStoreWrite, "document index failed")
	ErrDocumentNotFound    = errors.New(errors.ErrCodeNotFound, "document not found")
	ErrMappingConflict     = errors.New(errors.ErrCodeConflict, "mapping conflict")
)

// IndexMapping describes index settings and field mappings.
type IndexMapping struct {
	Settings map[string]interface{} `json:"settings,omitempty"`
	Mappings map[string]interface{} `json:"mappings,omitempty"`
}

// BulkResult summarizes the outcome of a bulk write. Created, Updated
// and Noops break Succeeded down by the per-item result reported by the
// store, so rerunning the same ingest shows up as noops instead of
// phantom writes.
type BulkResult struct {
	Succeeded int
	Failed    int
	Created   int
	Updated   int
	Noops     int
	Errors    []BulkItemError
}

// BulkItemError describes one failed bulk item.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}

// IndexerConfig holds configuration for the Indexer.
type IndexerConfig struct {
	BulkBatchSize int
	RefreshPolicy string
}

// Indexer manages index lifecycle and document writes.
type Indexer struct {
	client *Client
	config IndexerConfig
	logger logging.Logger
}

// NewIndexer creates a new Indexer.
func NewIndexer(client *Client, cfg IndexerConfig, logger logging.Logger) *Indexer {
	if cfg.BulkBatchSize == 0 {
		cfg.BulkBatchSize = 500
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = "false"
	}

	return &Indexer{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// CreateIndex creates a new index with the given mapping.
func (i *Indexer) CreateIndex(ctx context.Context, indexName string, mapping IndexMapping) error {
	exists, err := i.IndexExists(ctx, indexName)
	if err != nil {
		return err
	}
	if exists {
		return ErrIndexAlreadyExists
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to create index request")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.handleErrorResponse(resp, ErrIndexCreationFailed)
	}

	i.logger.Info("index created", logging.String("index", indexName))
	return nil
}

// EnsureIndex makes indexName exist with the given mapping: it creates the
// index when absent and applies the field mappings when present.  Returns
// true when the index was created.
func (i *Indexer) EnsureIndex(ctx context.Context, indexName string, mapping IndexMapping) (bool, error) {
	exists, err := i.IndexExists(ctx, indexName)
	if err != nil {
		return false, err
	}

	if !exists {
		if err := i.CreateIndex(ctx, indexName, mapping); err != nil && err != ErrIndexAlreadyExists {
			return false, err
		}
		return true, nil
	}

	if mapping.Mappings != nil {
		if err := i.UpdateMapping(ctx, indexName, mapping.Mappings); err != nil {
			return false, err
		}
	}
	return false, nil
}

// DeleteIndex deletes an index.
func (i *Indexer) DeleteIndex(ctx context.Context, indexName string) error {
	req := opensearchapi.IndicesDeleteRequest{
		Index: []string{indexName},
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to delete index request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return ErrIndexNotFound
	}

	if resp.IsError() {
		return i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreWrite, "delete index failed"))
	}

	i.logger.Warn("index deleted", logging.String("index", indexName))
	return nil
}

// IndexExists checks if an index exists.
func (i *Indexer) IndexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to check index existence")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		return true, nil
	}
	if resp.StatusCode == 404 {
		return false, nil
	}

	return false, i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreQuery, "check index existence failed"))
}

// IndexDocument writes a full document.  An empty refresh falls back to the
// configured policy; "wait_for" blocks until the write is searchable.
func (i *Indexer) IndexDocument(ctx context.Context, indexName, docID string, document interface{}, refresh string) error {
	if refresh == "" {
		refresh = i.config.RefreshPolicy
	}

	body, err := json.Marshal(document)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}

	req := opensearchapi.IndexRequest{
		Index:      indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
		Refresh:    refresh,
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to index document request")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.handleErrorResponse(resp, ErrDocumentIndexFailed)
	}

	return nil
}

// UpsertDocument merges the given fields into an existing document, or
// creates the document from them when absent (doc_as_upsert).
func (i *Indexer) UpsertDocument(ctx context.Context, indexName, docID string, doc interface{}, refresh string) error {
	if refresh == "" {
		refresh = i.config.RefreshPolicy
	}

	body, err := json.Marshal(map[string]interface{}{
		"doc":           doc,
		"doc_as_upsert": true,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal upsert document")
	}

	req := opensearchapi.UpdateRequest{
		Index:      indexName,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
		Refresh:    refresh,
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to upsert document request")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.handleErrorResponse(resp, ErrDocumentIndexFailed)
	}

	return nil
}

// GetDocument fetches one document source.  Absence is reported as
// ErrDocumentNotFound.
func (i *Indexer) GetDocument(ctx context.Context, indexName, docID string) (json.RawMessage, error) {
	req := opensearchapi.GetRequest{
		Index:      indexName,
		DocumentID: docID,
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreQuery, "failed to get document request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, ErrDocumentNotFound
	}
	if resp.IsError() {
		return nil, i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreQuery, "get document failed"))
	}

	var getResp struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&getResp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode get response")
	}
	if !getResp.Found {
		return nil, ErrDocumentNotFound
	}

	return getResp.Source, nil
}

// BulkIndex writes full documents in batches using the index action.
func (i *Indexer) BulkIndex(ctx context.Context, indexName string, documents map[string]interface{}) (*BulkResult, error) {
	return i.bulk(ctx, indexName, documents, false)
}

// BulkUpsert merges partial documents in batches using the update action
// with doc_as_upsert, so repeated ingests accumulate fields instead of
// replacing whole documents.
func (i *Indexer) BulkUpsert(ctx context.Context, indexName string, documents map[string]interface{}) (*BulkResult, error) {
	return i.bulk(ctx, indexName, documents, true)
}

func (i *Indexer) bulk(ctx context.Context, indexName string, documents map[string]interface{}, upsert bool) (*BulkResult, error) {
	result := &BulkResult{}
	if len(documents) == 0 {
		return result, nil
	}

	docIDs := make([]string, 0, len(documents))
	for id := range documents {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	batchSize := i.config.BulkBatchSize
	totalDocs := len(docIDs)

	for start := 0; start < totalDocs; start += batchSize {
		end := start + batchSize
		if end > totalDocs {
			end = totalDocs
		}

		batchIDs := docIDs[start:end]
		var buf bytes.Buffer

		for _, id := range batchIDs {
			doc := documents[id]

			var meta string
			if upsert {
				meta = fmt.Sprintf(`{"update":{"_index":%q,"_id":%q}}`, indexName, id)
			} else {
				meta = fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, indexName, id)
			}

			var payload interface{} = doc
			if upsert {
				payload = map[string]interface{}{"doc": doc, "doc_as_upsert": true}
			}
			docBytes, err := json.Marshal(payload)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					DocID:     id,
					ErrorType: "serialization_error",
					Reason:    err.Error(),
				})
				continue
			}

			buf.WriteString(meta + "\n")
			buf.Write(docBytes)
			buf.WriteString("\n")
		}

		if buf.Len() == 0 {
			continue
		}

		if err := i.executeBulkBatch(ctx, &buf, batchIDs, result); err != nil {
			return result, err
		}
	}

	i.logger.Info("bulk write completed",
		logging.String("index", indexName),
		logging.Int("total", totalDocs),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))

	return result, nil
}

func (i *Indexer) executeBulkBatch(ctx context.Context, buf *bytes.Buffer, batchIDs []string, result *BulkResult) error {
	req := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: i.config.RefreshPolicy,
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		result.Failed += len(batchIDs)
		batchErr := i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreWrite, "bulk batch failed"))
		result.Errors = append(result.Errors, BulkItemError{
			DocID:     "batch_error",
			ErrorType: "http_error",
			Reason:    batchErr.Error(),
		})
		return nil
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Result string `json:"result"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error,omitempty"`
		} `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	for _, item := range bulkResp.Items {
		// Each item is keyed by its action (index/update/delete).
		for _, v := range item {
			if v.Status >= 200 && v.Status < 300 {
				result.Succeeded++
				switch v.Result {
				case "created":
					result.Created++
				case "noop":
					result.Noops++
				default:
					result.Updated++
				}
			} else {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					DocID:     v.ID,
					ErrorType: v.Error.Type,
					Reason:    v.Error.Reason,
				})
			}
			break
		}
	}
	return nil
}

// DeleteDocument deletes a document.
func (i *Indexer) DeleteDocument(ctx context.Context, indexName, docID string) error {
	req := opensearchapi.DeleteRequest{
		Index:      indexName,
		DocumentID: docID,
		Refresh:    i.config.RefreshPolicy,
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to delete document request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return ErrDocumentNotFound
	}

	if resp.IsError() {
		return i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreWrite, "delete document failed"))
	}

	return nil
}

// UpdateMapping applies field mappings to an existing index.
func (i *Indexer) UpdateMapping(ctx context.Context, indexName string, mappings map[string]interface{}) error {
	body, err := json.Marshal(mappings)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal mapping")
	}

	req := opensearchapi.IndicesPutMappingRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(body),
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreWrite, "failed to update mapping request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 400 || resp.StatusCode == 409 {
		return i.handleErrorResponse(resp, ErrMappingConflict)
	}

	if resp.IsError() {
		return i.handleErrorResponse(resp, errors.New(errors.ErrCodeStoreWrite, "update mapping failed"))
	}

	return nil
}

func (i *Indexer) handleErrorResponse(resp *opensearchapi.Response, defaultErr error) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	code := errors.GetCode(defaultErr)
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Wrapf(defaultErr, code, "opensearch error: %s - %s", errResp.Error.Type, errResp.Error.Reason)
	}

	return errors.Wrapf(defaultErr, code, "opensearch error status: %d", resp.StatusCode)
}
