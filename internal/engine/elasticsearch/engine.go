package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/bazario/search-service/internal/domain"
)

// defaultRequestTimeout bounds every call against the document store.
const defaultRequestTimeout = 30 * time.Second

// Config holds the Elasticsearch engine configuration.
type Config struct {
	URL      string
	Username string
	Password string
	Index    string
	Timeout  time.Duration
}

// Engine is an Elasticsearch-backed implementation of the SearchEngine
// interface.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	policy    domain.ScoringPolicy
	timeout   time.Duration
	logger    *slog.Logger
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source domain.ProductDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esSuggestResponse decodes only the name fields of each hit.
type esSuggestResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source struct {
				Name   string `json:"name"`
				NameFR string `json:"name_fr"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esCountResponse decodes Elasticsearch count responses.
type esCountResponse struct {
	Count int `json:"count"`
}

// esUpdateByQueryResponse decodes update-by-query responses.
type esUpdateByQueryResponse struct {
	Updated int `json:"updated"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch engine connected to the configured URL.
// It ensures the products index exists, creating it with the current
// mapping if necessary. An empty index name falls back to DefaultIndexName.
func New(cfg Config, policy domain.ScoringPolicy, logger *slog.Logger) (*Engine, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: cfg.Index,
		policy:    policy,
		timeout:   cfg.Timeout,
		logger:    logger,
	}

	if err := e.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to ensure index: %w", err)
	}

	return e, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// ensureIndex creates the products index if it does not exist yet. Unlike
// Rebuild it never deletes an existing index.
func (e *Engine) ensureIndex() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	exists, err := e.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	if err := e.createIndex(ctx); err != nil {
		return err
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// indexExists reports whether the products index exists.
func (e *Engine) indexExists(ctx context.Context) (bool, error) {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	return res.StatusCode == 200, nil
}

// createIndex creates the products index with the current mapping.
func (e *Engine) createIndex(ctx context.Context) error {
	res, err := e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// deleteIndex removes the products index. A 404 is treated as success.
func (e *Engine) deleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete index: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// Search executes a search query against Elasticsearch and returns matching
// products plus the total hit count.
func (e *Engine) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(buildSearchQuery(query, e.policy))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	products := make([]domain.ProductDocument, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		products = append(products, hit.Source)
	}

	return &domain.SearchResult{
		Products: products,
		Total:    esResp.Hits.Total.Value,
		Page:     query.Page,
		PerPage:  query.Limit,
		TookMs:   int64(esResp.Took),
	}, nil
}

// Suggest executes a search-as-you-type query and returns the
// locale-appropriate display name of each hit plus the total count.
func (e *Engine) Suggest(ctx context.Context, query *domain.SuggestQuery) (*domain.SuggestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(buildSuggestQuery(query, e.policy))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch suggest: %s", decodeError(res.Body, res.Status()))
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	names := make([]string, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		if query.Locale == domain.LocaleFR {
			names = append(names, hit.Source.NameFR)
		} else {
			names = append(names, hit.Source.Name)
		}
	}

	return &domain.SuggestResult{
		Names: names,
		Total: esResp.Hits.Total.Value,
	}, nil
}

// Rebuild drops the products index if it exists, recreates it with the
// current mapping, and bulk-loads the given documents. The recreate step
// runs unconditionally, even when the index did not previously exist.
// Rebuild must not run concurrently with itself or with Upsert: the
// delete-then-recreate step leaves a window without an index, and this
// engine provides no mutual exclusion.
func (e *Engine) Rebuild(ctx context.Context, docs []domain.ProductDocument) (*domain.RebuildSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	exists, err := e.indexExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch rebuild: %w", err)
	}
	if exists {
		if err := e.deleteIndex(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch rebuild: %w", err)
		}
	}
	if err := e.createIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch rebuild: %w", err)
	}

	summary, err := e.bulkIndex(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch rebuild: %w", err)
	}

	e.logger.Info("index rebuilt",
		slog.String("index", e.indexName),
		slog.Int("indexed", summary.Indexed),
		slog.Int("failed", len(summary.Failures)),
	)
	return summary, nil
}

// bulkIndex writes the documents through the bulk NDJSON API, using each
// document's id as the document identifier. Individual document failures
// are collected into the summary and do not fail the batch.
func (e *Engine) bulkIndex(ctx context.Context, docs []domain.ProductDocument) (*domain.RebuildSummary, error) {
	if len(docs) == 0 {
		return &domain.RebuildSummary{}, nil
	}

	var buf bytes.Buffer
	for i := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.indexName,
				"_id":    docs[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, fmt.Errorf("bulk index: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(docs[i]); err != nil {
			return nil, fmt.Errorf("bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("bulk index: %s", decodeError(res.Body, res.Status()))
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return nil, fmt.Errorf("bulk index: decode response: %w", err)
	}

	summary := &domain.RebuildSummary{Indexed: len(docs)}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type == "" {
				continue
			}
			id, _ := strconv.ParseInt(item.Index.ID, 10, 64)
			summary.Failures = append(summary.Failures, domain.ItemFailure{
				ID:     id,
				Type:   item.Index.Error.Type,
				Reason: item.Index.Error.Reason,
			})
		}
		summary.Indexed = len(docs) - len(summary.Failures)
	}

	return summary, nil
}

// Upsert creates the product if its id is not indexed yet, otherwise merges
// the present fields into the stored document with an update-by-query
// script keyed by the fixed allow-list. Concurrent upserts to the same id
// race on last-write-wins semantics.
func (e *Engine) Upsert(ctx context.Context, update *domain.ProductUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	id := *update.ID
	changes := update.Changes()

	exists, err := e.documentExists(ctx, id)
	if err != nil {
		return false, err
	}

	if exists {
		return e.updateFields(ctx, id, changes)
	}

	// First write of this id: derive the geo point and index directly.
	if loc := domain.NewLocation(update.Latitude, update.Longitude); loc != nil {
		changes["location"] = loc
	}
	return true, e.indexDocument(ctx, id, changes)
}

// documentExists performs an identity lookup: a term match on the id field.
func (e *Engine) documentExists(ctx context.Context, id int64) (bool, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"term": map[string]any{"id": id},
		},
	})
	if err != nil {
		return false, fmt.Errorf("elasticsearch exists: marshal query: %w", err)
	}

	res, err := e.client.Count(
		e.client.Count.WithIndex(e.indexName),
		e.client.Count.WithBody(bytes.NewReader(body)),
		e.client.Count.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("elasticsearch exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return false, fmt.Errorf("elasticsearch exists: %s", decodeError(res.Body, res.Status()))
	}

	var countResp esCountResponse
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return false, fmt.Errorf("elasticsearch exists: decode response: %w", err)
	}
	return countResp.Count > 0, nil
}

// updateFields applies a server-side field-assignment script to the stored
// document matching the id. It reports true only when the store reports at
// least one document updated.
func (e *Engine) updateFields(ctx context.Context, id int64, changes map[string]any) (bool, error) {
	body, err := json.Marshal(map[string]any{
		"script": map[string]any{
			"source": buildUpdateScript(changes),
			"lang":   "painless",
			"params": map[string]any{"doc": changes},
		},
		"query": map[string]any{
			"term": map[string]any{"id": id},
		},
	})
	if err != nil {
		return false, fmt.Errorf("elasticsearch update: marshal body: %w", err)
	}

	res, err := e.client.UpdateByQuery(
		[]string{e.indexName},
		e.client.UpdateByQuery.WithBody(bytes.NewReader(body)),
		e.client.UpdateByQuery.WithContext(ctx),
		e.client.UpdateByQuery.WithRefresh(true),
	)
	if err != nil {
		return false, fmt.Errorf("elasticsearch update: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return false, fmt.Errorf("elasticsearch update: %s", decodeError(res.Body, res.Status()))
	}

	var updateResp esUpdateByQueryResponse
	if err := json.NewDecoder(res.Body).Decode(&updateResp); err != nil {
		return false, fmt.Errorf("elasticsearch update: decode response: %w", err)
	}

	if updateResp.Updated > 0 {
		e.logger.Debug("product updated", slog.Int64("id", id))
		return true, nil
	}
	return false, nil
}

// indexDocument writes the document body under the given id.
func (e *Engine) indexDocument(ctx context.Context, id int64, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal document: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(body),
		e.client.Index.WithDocumentID(strconv.FormatInt(id, 10)),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", decodeError(res.Body, res.Status()))
	}

	e.logger.Debug("product indexed", slog.Int64("id", id))
	return nil
}

// buildUpdateScript generates the painless field-assignment script from the
// fixed allow-list. Caller-supplied keys never reach the script source;
// values travel through params only.
func buildUpdateScript(changes map[string]any) string {
	var b strings.Builder
	for _, field := range domain.UpdatableFields() {
		if _, ok := changes[field]; !ok {
			continue
		}
		fmt.Fprintf(&b, "ctx._source.%s = params.doc.%s;", field, field)
	}
	return b.String()
}

// decodeError extracts a readable message from an Elasticsearch error body,
// falling back to the HTTP status line.
func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return "unexpected status " + status
}
