// Package service implements the business logic for search, suggestion,
// and indexing operations.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/engine"
	"github.com/bazario/search-service/internal/numex"
	"github.com/bazario/search-service/internal/repository"
	apperrors "github.com/bazario/search-service/pkg/errors"
)

const (
	defaultPerPage  = 20
	maxPerPage      = 100
	defaultRadiusKm = 20
)

// SearchService orchestrates the search engine and the product source.
type SearchService struct {
	engine  engine.SearchEngine
	source  repository.ProductSource
	pricing domain.PriceInferencePolicy
	logger  *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.SearchEngine, source repository.ProductSource, pricing domain.PriceInferencePolicy, logger *slog.Logger) *SearchService {
	return &SearchService{
		engine:  eng,
		source:  source,
		pricing: pricing,
		logger:  logger,
	}
}

// Search validates and normalizes the query, derives an implicit price band
// from the free text when no explicit bounds were given, and executes it.
func (s *SearchService) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	query.Term = strings.TrimSpace(query.Term)
	if query.Term == "" {
		return nil, apperrors.InvalidInput("search term is required")
	}

	normalizeSearch(query)
	s.inferPriceBand(query)

	result, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, apperrors.Collaborator("search engine", err)
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("term", query.Term),
		slog.String("sort_by", query.SortBy),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)

	return result, nil
}

// Suggest validates and normalizes the prefix query and executes it.
func (s *SearchService) Suggest(ctx context.Context, query *domain.SuggestQuery) (*domain.SuggestResult, error) {
	query.Term = strings.TrimSpace(query.Term)
	if query.Term == "" {
		return nil, apperrors.InvalidInput("suggestion term is required")
	}

	if query.Locale != domain.LocaleFR {
		query.Locale = domain.LocaleEN
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultPerPage
	}
	if query.Limit > maxPerPage {
		query.Limit = maxPerPage
	}

	result, err := s.engine.Suggest(ctx, query)
	if err != nil {
		return nil, apperrors.Collaborator("search engine", err)
	}

	return result, nil
}

// RebuildIndex fetches every live product from the source database and
// rebuilds the search index from scratch. Per-document failures are
// reported in the summary and do not fail the batch.
func (s *SearchService) RebuildIndex(ctx context.Context) (*domain.RebuildSummary, error) {
	products, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, apperrors.Collaborator("product database", err)
	}

	summary, err := s.engine.Rebuild(ctx, products)
	if err != nil {
		return nil, apperrors.Collaborator("search engine", err)
	}

	s.logger.InfoContext(ctx, "index rebuilt",
		slog.Int("indexed", summary.Indexed),
		slog.Int("failed", len(summary.Failures)),
	)

	return summary, nil
}

// UpsertProduct creates or partially updates a single document in the index.
// Returns true when the index changed.
func (s *SearchService) UpsertProduct(ctx context.Context, update *domain.ProductUpdate) (bool, error) {
	if update.ID == nil {
		return false, apperrors.InvalidInput("product id is required")
	}

	changed, err := s.engine.Upsert(ctx, update)
	if err != nil {
		return false, apperrors.Collaborator("search engine", err)
	}

	s.logger.InfoContext(ctx, "product upserted",
		slog.Int64("product_id", *update.ID),
		slog.Bool("changed", changed),
	)

	return changed, nil
}

// normalizeSearch applies pagination, radius, locale, and sort defaults.
func normalizeSearch(q *domain.SearchQuery) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPerPage
	}
	if q.Limit > maxPerPage {
		q.Limit = maxPerPage
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = defaultRadiusKm
	}
	if q.Locale != domain.LocaleFR {
		q.Locale = domain.LocaleEN
	}
	if q.SortBy == "" {
		q.SortBy = domain.SortRelevanceDesc
	}
}

// inferPriceBand derives an implicit price filter from amounts mentioned in
// the search text. It only runs when the caller supplied neither bound, and
// only when the largest extracted amount clears the policy floor. The band
// reaches from max_price - fraction*max_price up to max_price.
func (s *SearchService) inferPriceBand(q *domain.SearchQuery) {
	if q.MinPrice != nil || q.MaxPrice != nil {
		return
	}

	amounts := numex.Prices(q.Term)
	if len(amounts) == 0 {
		return
	}

	max := amounts[len(amounts)-1]
	if max <= s.pricing.Floor {
		return
	}

	min := max - s.pricing.BandFraction*max
	q.MaxPrice = &max
	q.MinPrice = &min
}
