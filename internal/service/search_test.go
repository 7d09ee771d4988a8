package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazario/search-service/internal/domain"
	"github.com/bazario/search-service/internal/engine/memory"
	apperrors "github.com/bazario/search-service/pkg/errors"
	"github.com/bazario/search-service/pkg/logger"
)

func ptr[T any](v T) *T { return &v }

type stubSource struct {
	products []domain.ProductDocument
	err      error
}

func (s *stubSource) FetchAll(_ context.Context) ([]domain.ProductDocument, error) {
	return s.products, s.err
}

func testLogger() *slog.Logger {
	return logger.NewWithWriter("search-test", "error", discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func sampleProducts() []domain.ProductDocument {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := []domain.ProductDocument{
		{
			ID: 1, Name: "Toyota Corolla 1999", NameFR: "Toyota Corolla 1999",
			CategoryID: 5, CategoryNameEN: "Cars", CategoryNameFR: "Voitures",
			Country: 1, Price: ptr(int64(4800)), CreatedAt: base,
		},
		{
			ID: 2, Name: "Toyota Camry", NameFR: "Toyota Camry",
			CategoryID: 5, CategoryNameEN: "Cars", CategoryNameFR: "Voitures",
			Country: 1, Price: ptr(int64(9000)), CreatedAt: base.AddDate(0, 0, 1),
		},
		{
			ID: 3, Name: "Toyota Yaris", NameFR: "Toyota Yaris",
			CategoryID: 5, CategoryNameEN: "Cars", CategoryNameFR: "Voitures",
			Country: 1, Price: ptr(int64(30)), CreatedAt: base.AddDate(0, 0, 2),
		},
	}
	for i := range docs {
		docs[i].DeriveFields()
	}
	return docs
}

func newService(t *testing.T, source *stubSource) (*SearchService, *memory.Engine) {
	t.Helper()
	eng := memory.New()
	svc := NewSearchService(eng, source, domain.DefaultPriceInferencePolicy(), testLogger())
	return svc, eng
}

func seededService(t *testing.T) (*SearchService, *memory.Engine) {
	t.Helper()
	svc, eng := newService(t, &stubSource{products: sampleProducts()})
	_, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)
	return svc, eng
}

func TestSearch_RequiresTerm(t *testing.T) {
	svc, _ := newService(t, &stubSource{})

	_, err := svc.Search(context.Background(), &domain.SearchQuery{Term: "   ", Country: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSearch_AppliesDefaults(t *testing.T) {
	svc, _ := seededService(t)

	q := &domain.SearchQuery{Term: "toyota", Country: 1}
	res, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, float64(20), q.RadiusKm)
	assert.Equal(t, domain.SortRelevanceDesc, q.SortBy)
	assert.Equal(t, domain.LocaleEN, q.Locale)
	assert.Equal(t, 3, res.Total)
}

func TestSearch_CapsPerPage(t *testing.T) {
	svc, _ := seededService(t)

	q := &domain.SearchQuery{Term: "toyota", Country: 1, Limit: 500}
	_, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 100, q.Limit)
}

func TestSearch_InfersPriceBandFromText(t *testing.T) {
	svc, _ := seededService(t)

	// "5000" reads as an amount: band becomes [4000, 5000].
	q := &domain.SearchQuery{Term: "toyota 5000", Country: 1}
	res, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, q.MaxPrice)
	require.NotNil(t, q.MinPrice)
	assert.Equal(t, 5000.0, *q.MaxPrice)
	assert.Equal(t, 4000.0, *q.MinPrice)

	// Only the 4800 car falls inside the band.
	require.Equal(t, 1, res.Total)
	assert.Equal(t, int64(1), res.Products[0].ID)
}

func TestSearch_NoInferenceForYears(t *testing.T) {
	svc, _ := seededService(t)

	// "1999" is a year, not an amount.
	q := &domain.SearchQuery{Term: "toyota 1999", Country: 1}
	res, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.MaxPrice)
	assert.Equal(t, 3, res.Total)
}

func TestSearch_NoInferenceBelowFloor(t *testing.T) {
	svc, _ := seededService(t)

	// 40 is below the inference floor; no band is derived.
	q := &domain.SearchQuery{Term: "toyota 40", Country: 1}
	_, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.MaxPrice)
}

func TestSearch_ExplicitBoundsSkipInference(t *testing.T) {
	svc, _ := seededService(t)

	q := &domain.SearchQuery{Term: "toyota 5000", Country: 1, MinPrice: ptr(10.0)}
	_, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 10.0, *q.MinPrice)
	assert.Nil(t, q.MaxPrice)
}

func TestSuggest_RequiresTerm(t *testing.T) {
	svc, _ := seededService(t)

	_, err := svc.Suggest(context.Background(), &domain.SuggestQuery{Term: "", Country: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSuggest_ReturnsNames(t *testing.T) {
	svc, _ := seededService(t)

	res, err := svc.Suggest(context.Background(), &domain.SuggestQuery{Term: "toyota", Country: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Contains(t, res.Names, "Toyota Camry")
}

func TestRebuildIndex_SourceFailure(t *testing.T) {
	svc, _ := newService(t, &stubSource{err: errors.New("connection refused")})

	_, err := svc.RebuildIndex(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCollaborator))
}

func TestRebuildIndex_Idempotent(t *testing.T) {
	svc, eng := newService(t, &stubSource{products: sampleProducts()})

	first, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)
	second, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Indexed, second.Indexed)
	assert.Equal(t, 3, eng.Len())
}

func TestUpsertProduct_RequiresID(t *testing.T) {
	svc, _ := newService(t, &stubSource{})

	_, err := svc.UpsertProduct(context.Background(), &domain.ProductUpdate{Name: ptr("Bike")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestUpsertProduct_CreateThenUpdate(t *testing.T) {
	svc, eng := newService(t, &stubSource{})

	changed, err := svc.UpsertProduct(context.Background(), &domain.ProductUpdate{
		ID:      ptr(int64(42)),
		Name:    ptr("Canoe"),
		Country: ptr(1),
		Price:   ptr(int64(700)),
	})
	require.NoError(t, err)
	assert.True(t, changed)
	require.Equal(t, 1, eng.Len())

	changed, err = svc.UpsertProduct(context.Background(), &domain.ProductUpdate{
		ID:    ptr(int64(42)),
		Price: ptr(int64(650)),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	doc, ok := eng.Get(42)
	require.True(t, ok)
	assert.Equal(t, "Canoe", doc.Name)
	require.NotNil(t, doc.Price)
	assert.Equal(t, int64(650), *doc.Price)
}
