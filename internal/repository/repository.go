// Package repository defines the read-side contracts for the product
// database that feeds the search index.
package repository

import (
	"context"

	"github.com/bazario/search-service/internal/domain"
)

// ProductSource streams the canonical product records used to build the
// search index. The search service never writes back to the source.
type ProductSource interface {
	// FetchAll returns every live product joined with its category names,
	// ready to be indexed.
	FetchAll(ctx context.Context) ([]domain.ProductDocument, error)
}
