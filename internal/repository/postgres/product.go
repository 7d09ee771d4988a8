// Package postgres implements the product source against the catalog
// database. Access is read-only; schema ownership stays with the catalog
// service.
package postgres

import (
	"context"
	"fmt"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/pkg/database"
)

// productColumns is the standard SELECT column list for indexable products,
// joined with the owning category for both locale names.
const productColumns = `p.id, p.name, p.name_fr, p.description, p.description_fr,
	p.category_id, c.name_en, c.name_fr, p.brand_id, p.user_id,
	p.country, p.whole_sale, p.price, p.currency, p.latitude, p.longitude,
	p.hash, p.image, p.search_index, p.created_at, p.updated_at, p.deleted_at`

// ProductRepository reads indexable products from PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product source.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// FetchAll returns every live product joined with its category names. The
// derived fields (formatted price, geo point) are computed on the way out so
// callers always receive index-ready documents.
func (r *ProductRepository) FetchAll(ctx context.Context) (products []domain.ProductDocument, err error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.deleted_at IS NULL
		ORDER BY p.id`, productColumns)

	ctx, end := database.TraceQuery(ctx, "FetchAllProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.ProductDocument
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.NameFR,
			&p.Description,
			&p.DescriptionFR,
			&p.CategoryID,
			&p.CategoryNameEN,
			&p.CategoryNameFR,
			&p.BrandID,
			&p.UserID,
			&p.Country,
			&p.WholeSale,
			&p.Price,
			&p.Currency,
			&p.Latitude,
			&p.Longitude,
			&p.Hash,
			&p.Image,
			&p.SearchIndex,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.DeriveFields()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// Ping verifies database connectivity, used by the readiness probe.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
