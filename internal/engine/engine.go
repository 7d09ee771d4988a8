package engine

import (
	"context"

	"github.com/bazario/search-service/internal/domain"
)

// SearchEngine defines the operations the search service needs from a
// document store. Implementations may use Elasticsearch or in-memory
// storage.
type SearchEngine interface {
	// Search executes a relevance-ranked, filtered, sorted product search.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)

	// Suggest executes a lightweight search-as-you-type query and returns
	// locale-appropriate product names.
	Suggest(ctx context.Context, query *domain.SuggestQuery) (*domain.SuggestResult, error)

	// Rebuild drops the index if it exists, recreates it with the current
	// mapping, and bulk-loads the given documents. Per-document failures
	// are reported in the summary without failing the batch.
	Rebuild(ctx context.Context, docs []domain.ProductDocument) (*domain.RebuildSummary, error)

	// Upsert creates the document if its id is not indexed yet, otherwise
	// merges the present fields into the stored document. It reports true
	// when the store created or updated at least one document.
	Upsert(ctx context.Context, update *domain.ProductUpdate) (bool, error)
}
